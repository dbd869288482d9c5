package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/protocol"
)

type member struct {
	identity domain.Identity
	seq      uint64 // порядок подключения, для стабильного списка участников
}

// Room: журнал действий и набор сессий одной комнаты.
// Всё состояние защищено mu: это и есть домен сериализации комнаты.
type Room struct {
	id string

	mu         sync.Mutex
	actions    []domain.Action
	index      map[string]int // action id -> позиция в actions
	sessions   map[*Session]member
	joinSeq    uint64
	lastActive time.Time
	closed     bool
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		id:         id,
		index:      make(map[string]int),
		sessions:   make(map[*Session]member),
		lastActive: now,
	}
}

func (r *Room) ID() string { return r.id }

// Snapshot возвращает копию состояния, не разделяющую память с журналом.
func (r *Room) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) Summary() domain.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomSummary{
		ID:           r.id,
		Participants: len(r.identitiesLocked()),
		Sessions:     len(r.sessions),
		Actions:      len(r.actions),
		LastActiveAt: r.lastActive,
	}
}

func (r *Room) snapshotLocked() domain.Snapshot {
	actions := make([]domain.Action, 0, len(r.actions))
	for _, a := range r.actions {
		actions = append(actions, a.Clone())
	}
	return domain.Snapshot{
		RoomID:       r.id,
		Actions:      actions,
		Participants: r.identitiesLocked(),
	}
}

// identitiesLocked: уникальные личности в порядке первого подключения.
func (r *Room) identitiesLocked() []domain.Identity {
	first := make(map[domain.Identity]uint64, len(r.sessions))
	for _, m := range r.sessions {
		if seq, ok := first[m.identity]; !ok || m.seq < seq {
			first[m.identity] = m.seq
		}
	}
	out := make([]domain.Identity, 0, len(first))
	for id := range first {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return first[out[i]] < first[out[j]] })
	return out
}

func (r *Room) hasIdentityLocked(id domain.Identity) bool {
	for _, m := range r.sessions {
		if m.identity == id {
			return true
		}
	}
	return false
}

func (r *Room) attachLocked(s *Session, id domain.Identity) {
	r.joinSeq++
	r.sessions[s] = member{identity: id, seq: r.joinSeq}
}

func (r *Room) lookupLocked(actionID string) *domain.Action {
	i, ok := r.index[actionID]
	if !ok {
		return nil
	}
	return &r.actions[i]
}

func (r *Room) appendLocked(a domain.Action) {
	r.index[a.ID] = len(r.actions)
	r.actions = append(r.actions, a)
}

// lastOwnedLocked делает обратный проход по журналу и находит последнее действие владельца
// с заданным флагом undone. Отдельного стека undo/redo нет.
func (r *Room) lastOwnedLocked(owner domain.Identity, undone bool) *domain.Action {
	for i := len(r.actions) - 1; i >= 0; i-- {
		a := &r.actions[i]
		if a.OwnerID == owner && a.Undone == undone {
			return a
		}
	}
	return nil
}

// broadcastLocked рассылает сообщение всем сессиям комнаты, кроме except (может быть nil).
func (r *Room) broadcastLocked(msg protocol.Message, except *Session) {
	for s := range r.sessions {
		if s == except {
			continue
		}
		s.sink.Deliver(msg)
	}
}

func (r *Room) touchLocked(now time.Time) {
	if now.After(r.lastActive) {
		r.lastActive = now
	}
}

// idleLocked: комната пуста и не активна дольше idle.
func (r *Room) idleLocked(now time.Time, idle time.Duration) bool {
	return len(r.sessions) == 0 && now.Sub(r.lastActive) >= idle
}
