package client

import (
	"github.com/cwrk-planet/board-service/internal/domain"
)

type Action = domain.Action

// State: копия локальной реплики комнаты.
type State struct {
	Actions      []Action
	Participants []string
}

// Visible: неотменённые действия в порядке журнала, т.е. то, что рисуется.
func (s State) Visible() []Action {
	out := make([]Action, 0, len(s.Actions))
	for _, a := range s.Actions {
		if !a.Undone {
			out = append(out, a)
		}
	}
	return out
}

// replica: упорядоченный журнал действий и список участников на стороне клиента.
// Не потокобезопасна: Client держит её под своим mutex.
type replica struct {
	actions      []Action
	index        map[string]int
	participants []string

	// payload до начала жеста: к нему откатываемся при update-denied
	gestures map[string]domain.Payload
}

func newReplica() *replica {
	return &replica{
		index:    make(map[string]int),
		gestures: make(map[string]domain.Payload),
	}
}

func (r *replica) reset(actions []Action, participants []domain.Identity) {
	r.actions = r.actions[:0]
	r.index = make(map[string]int, len(actions))
	r.gestures = make(map[string]domain.Payload)
	for _, a := range actions {
		r.add(a)
	}
	r.participants = r.participants[:0]
	for _, p := range participants {
		r.join(p.String())
	}
}

// add игнорирует уже известный id: так отсекается эхо собственного create.
func (r *replica) add(a Action) bool {
	if _, ok := r.index[a.ID]; ok {
		return false
	}
	if a.Payload == nil {
		a.Payload = domain.Payload{}
	}
	r.index[a.ID] = len(r.actions)
	r.actions = append(r.actions, a.Clone())
	return true
}

func (r *replica) get(id string) *Action {
	i, ok := r.index[id]
	if !ok {
		return nil
	}
	return &r.actions[i]
}

// preview применяет кадр жеста только локально, запоминая исходный payload.
func (r *replica) preview(id string, patch domain.Payload, replace bool) bool {
	a := r.get(id)
	if a == nil {
		return false
	}
	if _, ok := r.gestures[id]; !ok {
		r.gestures[id] = a.Payload.Clone()
	}
	if replace {
		a.Payload = patch.Clone()
	} else {
		a.Payload = a.Payload.Merge(patch)
	}
	return true
}

// confirm: авторитетный payload с сервера, жест завершён.
func (r *replica) confirm(id string, payload domain.Payload) bool {
	a := r.get(id)
	if a == nil {
		return false
	}
	a.Payload = payload.Clone()
	delete(r.gestures, id)
	return true
}

// rollback возвращает payload, бывший до жеста.
func (r *replica) rollback(id string) bool {
	base, ok := r.gestures[id]
	if !ok {
		return false
	}
	delete(r.gestures, id)
	if a := r.get(id); a != nil {
		a.Payload = base
	}
	return true
}

func (r *replica) setUndone(id string, undone bool) bool {
	a := r.get(id)
	if a == nil {
		return false
	}
	a.Undone = undone
	return true
}

func (r *replica) join(identity string) bool {
	for _, p := range r.participants {
		if p == identity {
			return false
		}
	}
	r.participants = append(r.participants, identity)
	return true
}

func (r *replica) leave(identity string) bool {
	for i, p := range r.participants {
		if p == identity {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return true
		}
	}
	return false
}

func (r *replica) state() State {
	s := State{
		Actions:      make([]Action, 0, len(r.actions)),
		Participants: append([]string(nil), r.participants...),
	}
	for _, a := range r.actions {
		s.Actions = append(s.Actions, a.Clone())
	}
	return s
}
