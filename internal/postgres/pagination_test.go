package postgres

import (
	"errors"
	"testing"
	"time"
)

func TestCursor_RoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123000000, time.UTC), ID: "0b8f1a52-4bd6-4c1e-9d5f-2f0d8a7c6e11"}

	s, err := EncodeCursor(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	if c, err := DecodeCursor(""); c != nil || err != nil {
		t.Fatalf("empty cursor must be (nil, nil), got %v %v", c, err)
	}

	incomplete, _ := EncodeCursor(Cursor{ID: "x"})
	for _, s := range []string{"%%%", "bm90LWpzb24", incomplete} {
		if _, err := DecodeCursor(s); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("%q: expected ErrInvalidCursor, got %v", s, err)
		}
	}
}
