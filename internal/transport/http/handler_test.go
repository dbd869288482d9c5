package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/engine"
	"github.com/cwrk-planet/board-service/internal/postgres"
	"github.com/cwrk-planet/board-service/internal/protocol"
	httpmw "github.com/cwrk-planet/board-service/internal/transport/http/middleware"
)

type fakeJournal struct {
	entries []domain.JournalEntry
	gotRoom string
	gotAft  string
	gotLim  int
}

func (f *fakeJournal) List(_ context.Context, roomID, after string, limit int) ([]domain.JournalEntry, string, error) {
	f.gotRoom, f.gotAft, f.gotLim = roomID, after, limit
	if after == "bad" {
		return nil, "", postgres.ErrInvalidCursor
	}
	return f.entries, "next-page", nil
}

func noWS(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }

func newRouter(t *testing.T, journal JournalReader) (http.Handler, *engine.Engine) {
	t.Helper()
	eng := engine.New(engine.NewRegistry())
	return NewRouter(NewHandler(eng.Registry(), journal), noWS, []string{"*"}), eng
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func joinAndCreate(t *testing.T, eng *engine.Engine, room string, identity domain.Identity, actionID string) {
	t.Helper()
	s := eng.NewSession(engine.SinkFunc(func(protocol.Message) {}))
	if err := eng.Join(context.Background(), s, room, identity); err != nil {
		t.Fatalf("join: %v", err)
	}
	if actionID == "" {
		return
	}
	if err := eng.Create(s, domain.Action{ID: actionID, Kind: domain.KindRect, Payload: domain.Payload{}}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newRouter(t, nil)
	rec := do(t, h, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpmw.HeaderRequestID) == "" {
		t.Fatal("request id must be echoed")
	}
}

func TestListRooms(t *testing.T) {
	h, eng := newRouter(t, nil)
	joinAndCreate(t, eng, "b", "B", "")
	joinAndCreate(t, eng, "a", "A", "a1")

	rec := do(t, h, "/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp RoomsListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].ID != "a" || resp.Items[0].Actions != 1 || resp.Items[1].Participants != 1 {
		t.Fatalf("items = %+v", resp.Items)
	}
}

func TestGetRoom(t *testing.T) {
	h, eng := newRouter(t, nil)

	if rec := do(t, h, "/rooms/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing room status = %d", rec.Code)
	}
	if eng.Registry().Len() != 0 {
		t.Fatal("inspection must not create rooms")
	}

	joinAndCreate(t, eng, "R", "A", "a1")
	rec := do(t, h, "/rooms/R")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp RoomSnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "R" || len(resp.Actions) != 1 || resp.Actions[0].OwnerID != "A" || len(resp.Participants) != 1 {
		t.Fatalf("snapshot = %+v", resp)
	}
}

func TestGetJournal(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _ := newRouter(t, nil)
		if rec := do(t, h, "/rooms/R/journal"); rec.Code != http.StatusNotImplemented {
			t.Fatalf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("page", func(t *testing.T) {
		at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		j := &fakeJournal{entries: []domain.JournalEntry{{ID: "e1", RoomID: "R", Event: "create", Identity: "A", ActionID: "a1", CreatedAt: at}}}
		h, _ := newRouter(t, j)

		rec := do(t, h, "/rooms/R/journal?limit=10&cursor=abc")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if j.gotRoom != "R" || j.gotAft != "abc" || j.gotLim != 10 {
			t.Fatalf("args = %q %q %d", j.gotRoom, j.gotAft, j.gotLim)
		}
		var resp JournalPageResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.NextCursor != "next-page" || len(resp.Items) != 1 || resp.Items[0].ActionID != "a1" {
			t.Fatalf("resp = %+v", resp)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		h, _ := newRouter(t, &fakeJournal{})
		if rec := do(t, h, "/rooms/R/journal?cursor=bad"); rec.Code != http.StatusBadRequest {
			t.Fatalf("bad cursor status = %d", rec.Code)
		}
		if rec := do(t, h, "/rooms/R/journal?limit=x"); rec.Code != http.StatusBadRequest {
			t.Fatalf("bad limit status = %d", rec.Code)
		}
	})
}

func TestWSRouteIsMounted(t *testing.T) {
	h, _ := newRouter(t, nil)
	if rec := do(t, h, "/ws"); rec.Code != http.StatusTeapot {
		t.Fatalf("ws route status = %d", rec.Code)
	}
}
