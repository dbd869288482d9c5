package client

import (
	"encoding/json"
	"testing"

	"github.com/cwrk-planet/board-service/internal/domain"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestReplica_AddDedupesByID(t *testing.T) {
	r := newReplica()
	a := Action{ID: "a1", OwnerID: "A", Kind: domain.KindRect, Payload: domain.Payload{"x": raw("1")}}
	if !r.add(a) {
		t.Fatal("first add must apply")
	}
	a.Payload = domain.Payload{"x": raw("2")}
	if r.add(a) {
		t.Fatal("echo with known id must be ignored")
	}
	if got := string(r.get("a1").Payload["x"]); got != "1" {
		t.Fatalf("payload overwritten by echo: %s", got)
	}
}

func TestReplica_PreviewRollback(t *testing.T) {
	r := newReplica()
	r.add(Action{ID: "a1", OwnerID: "A", Payload: domain.Payload{"x": raw("1"), "y": raw("1")}})

	r.preview("a1", domain.Payload{"x": raw("5")}, false)
	r.preview("a1", domain.Payload{"x": raw("9")}, false)
	if got := string(r.get("a1").Payload["x"]); got != "9" {
		t.Fatalf("preview not applied: %s", got)
	}

	if !r.rollback("a1") {
		t.Fatal("rollback must find the gesture base")
	}
	p := r.get("a1").Payload
	if string(p["x"]) != "1" || string(p["y"]) != "1" {
		t.Fatalf("rollback must restore pre-gesture payload, got %v", p)
	}
	if r.rollback("a1") {
		t.Fatal("second rollback has nothing to restore")
	}
}

func TestReplica_ConfirmEndsGesture(t *testing.T) {
	r := newReplica()
	r.add(Action{ID: "a1", Payload: domain.Payload{"x": raw("1")}})
	r.preview("a1", domain.Payload{"x": raw("3")}, true)

	r.confirm("a1", domain.Payload{"x": raw("4")})
	if got := string(r.get("a1").Payload["x"]); got != "4" {
		t.Fatalf("confirm must take server payload, got %s", got)
	}
	if r.rollback("a1") {
		t.Fatal("confirmed gesture must not roll back")
	}
}

func TestReplica_ParticipantsAndReset(t *testing.T) {
	r := newReplica()
	r.join("A")
	r.join("B")
	if r.join("A") {
		t.Fatal("participants are de-duplicated")
	}
	r.leave("A")

	r.add(Action{ID: "old"})
	r.reset([]Action{{ID: "a1"}, {ID: "a2", Undone: true}}, []domain.Identity{"B", "C"})

	st := r.state()
	if len(st.Actions) != 2 || r.get("old") != nil {
		t.Fatalf("reset must replace the log: %+v", st.Actions)
	}
	if len(st.Participants) != 2 || st.Participants[0] != "B" {
		t.Fatalf("participants = %v", st.Participants)
	}
	if v := st.Visible(); len(v) != 1 || v[0].ID != "a1" {
		t.Fatalf("visible = %+v", v)
	}
}
