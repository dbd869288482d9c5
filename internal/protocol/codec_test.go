package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
)

func TestParse(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); !errors.Is(err, domain.ErrMalformedIntent) {
		t.Fatalf("expected malformed, got %v", err)
	}
	if _, err := Parse([]byte(`{"payload":{}}`)); !errors.Is(err, domain.ErrMalformedIntent) {
		t.Fatalf("missing type must be malformed, got %v", err)
	}
	m, err := Parse([]byte(`{"type":"join","payload":{"roomId":"R1","identity":"A"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Type != TypeJoin {
		t.Fatalf("type mismatch: %q", m.Type)
	}
}

func TestDecodeJoin(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "ok", raw: `{"roomId":"R1","identity":"A"}`},
		{name: "no room", raw: `{"identity":"A"}`, wantErr: true},
		{name: "blank room", raw: `{"roomId":"  ","identity":"A"}`, wantErr: true},
		{name: "no identity", raw: `{"roomId":"R1"}`, wantErr: true},
		{name: "no payload", raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJoin(json.RawMessage(tt.raw))
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v err=%v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, domain.ErrMalformedIntent) {
				t.Fatalf("error must wrap ErrMalformedIntent: %v", err)
			}
		})
	}
}

func TestDecodeCreate_Defaults(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	a, err := DecodeCreate(json.RawMessage(`{"id":"a1","kind":"path","payload":{"pts":[1,2]}}`), "A", now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.OwnerID != "A" {
		t.Fatalf("owner should default to session identity, got %q", a.OwnerID)
	}
	if a.CreatedAt != now.UnixMilli() {
		t.Fatalf("createdAt should default to now, got %d", a.CreatedAt)
	}
	if string(a.Payload["pts"]) != `[1,2]` {
		t.Fatalf("payload lost: %v", a.Payload)
	}

	a, err = DecodeCreate(json.RawMessage(`{"id":"a2","ownerId":"B","kind":"rect","createdAt":5}`), "A", now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.OwnerID != "B" || a.CreatedAt != 5 {
		t.Fatalf("explicit owner/createdAt must be kept: %+v", a)
	}
	if a.Payload == nil {
		t.Fatal("missing payload must decode as empty object")
	}
}

func TestDecodeCreate_Malformed(t *testing.T) {
	for _, raw := range []string{
		`{"kind":"path"}`,
		`{"id":"a1"}`,
		`{"id":"a1","kind":"path","payload":[1]}`,
	} {
		if _, err := DecodeCreate(json.RawMessage(raw), "A", time.Now()); !errors.Is(err, domain.ErrMalformedIntent) {
			t.Fatalf("%s: expected malformed, got %v", raw, err)
		}
	}
}

func TestDecodeUpdate(t *testing.T) {
	u, err := DecodeUpdate(json.RawMessage(`{"actionId":"a1","payload":{"x":1},"replace":true,"claimedOwnerId":"A"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !u.Replace || u.ActionID != "a1" || u.ClaimedOwnerID != "A" || string(u.Payload["x"]) != "1" {
		t.Fatalf("unexpected intent: %+v", u)
	}

	for _, raw := range []string{
		`{"payload":{"x":1},"claimedOwnerId":"A"}`,
		`{"actionId":"a1","claimedOwnerId":"A"}`,
		`{"actionId":"a1","payload":null,"claimedOwnerId":"A"}`,
		`{"actionId":"a1","payload":{"x":1}}`,
		`{"actionId":"a1","payload":"x","claimedOwnerId":"A"}`,
	} {
		if _, err := DecodeUpdate(json.RawMessage(raw)); !errors.Is(err, domain.ErrMalformedIntent) {
			t.Fatalf("%s: expected malformed, got %v", raw, err)
		}
	}
}

func TestDecodeToggle(t *testing.T) {
	p, err := DecodeToggle(json.RawMessage(`{"claimedOwnerId":"A"}`))
	if err != nil {
		t.Fatalf("empty actionId is allowed: %v", err)
	}
	if p.ActionID != "" {
		t.Fatalf("unexpected id %q", p.ActionID)
	}
	if _, err := DecodeToggle(json.RawMessage(`{"actionId":"a1"}`)); !errors.Is(err, domain.ErrMalformedIntent) {
		t.Fatalf("missing claimedOwnerId must be malformed, got %v", err)
	}
}

func TestEncode_WireShape(t *testing.T) {
	m := MustEncode(TypeUpdateDenied, DeniedPayload{ActionID: "a1", Reason: ReasonNotOwner})
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"update-denied","payload":{"actionId":"a1","reason":"not-owner"}}`
	if string(b) != want {
		t.Fatalf("wire mismatch:\n got %s\nwant %s", b, want)
	}
}

func TestDecodeCreate_IgnoresClientUndone(t *testing.T) {
	a, err := DecodeCreate(json.RawMessage(`{"id":"a1","kind":"path","ownerId":"A","undone":true}`), "A", time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Undone {
		t.Fatal("new action must start not undone")
	}
}
