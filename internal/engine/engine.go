package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/protocol"
	"github.com/cwrk-planet/board-service/pkg/logger"
)

// EventLeave: событие журнала об уходе личности из комнаты. Остальные события
// журнала совпадают с типами намерений и отказов из protocol.
const EventLeave = "leave"

// Journal получает записи о применённых операциях. Record не должен блокировать.
type Journal interface {
	Record(e domain.JournalEntry)
}

type Option func(*Engine)

// WithJournal подключает журнал активности.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithKindValidation отбрасывает create с типом вне закрытого набора.
func WithKindValidation(on bool) Option {
	return func(e *Engine) { e.validateKinds = on }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine: движок синхронизации. Все мутации комнаты выполняются под её локом,
// события раскладываются по исходящим очередям сессий там же.
type Engine struct {
	registry      *Registry
	journal       Journal
	validateKinds bool
	now           func() time.Time
}

func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	registry.now = e.now
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

// NewSession регистрирует исходящий канал подключения. До join сессия ни к чему не привязана.
func (e *Engine) NewSession(sink Sink) *Session {
	return newSession(sink)
}

// Join: рукопожатие ресинхронизации. Регистрация, снапшот и participant-joined
// выполняются атомарно относительно остальных операций комнаты.
func (e *Engine) Join(ctx context.Context, s *Session, roomID string, identity domain.Identity) error {
	if roomID == "" || !identity.Valid() {
		return domain.ErrMalformedIntent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.room != nil {
		if s.room.id != roomID {
			return domain.ErrAlreadyJoined
		}
		// повторный join той же комнаты: только свежий снапшот
		room := s.room
		room.mu.Lock()
		s.sink.Deliver(roomStateMessage(room.snapshotLocked()))
		room.mu.Unlock()
		return nil
	}

	for {
		room := e.registry.GetOrCreate(roomID)
		room.mu.Lock()
		if room.closed {
			// комнату только что удалил reaper: берём новую
			room.mu.Unlock()
			continue
		}

		room.attachLocked(s, identity)
		room.touchLocked(e.now())
		s.room = room
		s.identity = identity

		s.sink.Deliver(roomStateMessage(room.snapshotLocked()))
		room.broadcastLocked(protocol.MustEncode(protocol.TypeParticipantJoined,
			protocol.ParticipantPayload{Identity: identity}), s)
		e.record(room.id, protocol.TypeJoin, identity, "")
		room.mu.Unlock()

		logger.FromContext(ctx).Debug("engine join", "room", roomID, "identity", identity, "session", s.id)
		return nil
	}
}

// Disconnect синхронно убирает сессию из комнаты. participant-left уходит,
// только если у личности не осталось других сессий в комнате.
func (e *Engine) Disconnect(ctx context.Context, s *Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	room, identity := s.room, s.identity
	s.mu.Unlock()

	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	delete(room.sessions, s)
	room.touchLocked(e.now())
	if room.hasIdentityLocked(identity) {
		logger.FromContext(ctx).Debug("engine leave, identity still present", "room", room.id, "identity", identity, "session", s.id)
		return
	}
	room.broadcastLocked(protocol.MustEncode(protocol.TypeParticipantLeft,
		protocol.ParticipantPayload{Identity: identity}), nil)
	e.record(room.id, EventLeave, identity, "")
}

// Create добавляет действие в конец журнала. Автор применил его оптимистично,
// поэтому action-added получают все, кроме него.
func (e *Engine) Create(s *Session, a domain.Action) error {
	room, identity, err := s.binding()
	if err != nil {
		return err
	}
	if a.ID == "" {
		return fmt.Errorf("%w: action id is required", domain.ErrMalformedIntent)
	}
	if e.validateKinds && !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, a.Kind)
	}
	if a.Payload == nil {
		a.Payload = domain.Payload{}
	}
	if !a.OwnerID.Valid() {
		a.OwnerID = identity
	}
	// новое действие всегда активно: undone меняют только undo/redo
	a.Undone = false
	if a.CreatedAt <= 0 {
		a.CreatedAt = e.now().UnixMilli()
	}
	a.Payload = a.Payload.Clone()
	added, err := protocol.Encode(protocol.TypeActionAdded, a)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return domain.ErrRoomClosed
	}
	if room.lookupLocked(a.ID) != nil {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAction, a.ID)
	}

	room.appendLocked(a)
	room.touchLocked(e.now())
	room.broadcastLocked(added, s)
	e.record(room.id, protocol.TypeCreate, identity, a.ID)
	return nil
}

// Update меняет payload действия. Неизвестный id молча игнорируется,
// чужое действие: update-denied только запросившему. Побеждает последний update.
func (e *Engine) Update(s *Session, in protocol.UpdateIntent) error {
	room, identity, err := s.binding()
	if err != nil {
		return err
	}
	if in.ActionID == "" || !in.ClaimedOwnerID.Valid() || in.Payload == nil {
		return domain.ErrMalformedIntent
	}
	if _, err := json.Marshal(in.Payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	a := room.lookupLocked(in.ActionID)
	if a == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, in.ActionID)
	}
	if !domain.CanMutate(a, in.ClaimedOwnerID) {
		s.sink.Deliver(protocol.MustEncode(protocol.TypeUpdateDenied, protocol.DeniedPayload{
			ActionID: a.ID,
			Reason:   protocol.ReasonNotOwner,
		}))
		e.record(room.id, protocol.TypeUpdateDenied, identity, a.ID)
		return fmt.Errorf("%w: %s", domain.ErrNotOwner, a.ID)
	}

	if in.Replace {
		a.Payload = in.Payload.Clone()
	} else {
		a.Payload = a.Payload.Merge(in.Payload)
	}
	room.touchLocked(e.now())
	room.broadcastLocked(protocol.MustEncode(protocol.TypeActionUpdated, protocol.ActionUpdatedPayload{
		ActionID: a.ID,
		Payload:  a.Payload,
	}), nil)
	e.record(room.id, protocol.TypeUpdate, identity, a.ID)
	return nil
}

// Undo помечает действие отменённым. Пустой actionID: последнее не отменённое действие claimed.
func (e *Engine) Undo(s *Session, actionID string, claimed domain.Identity) error {
	return e.toggle(s, actionID, claimed, true)
}

// Redo снимает отметку отмены. Пустой actionID: последнее отменённое действие claimed.
func (e *Engine) Redo(s *Session, actionID string, claimed domain.Identity) error {
	return e.toggle(s, actionID, claimed, false)
}

func (e *Engine) toggle(s *Session, actionID string, claimed domain.Identity, undone bool) error {
	room, identity, err := s.binding()
	if err != nil {
		return err
	}
	if !claimed.Valid() {
		return domain.ErrMalformedIntent
	}

	okType, deniedType, intent := protocol.TypeActionUndone, protocol.TypeUndoDenied, protocol.TypeUndo
	if !undone {
		okType, deniedType, intent = protocol.TypeActionRedone, protocol.TypeRedoDenied, protocol.TypeRedo
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	var a *domain.Action
	if actionID == "" {
		// ищем с конца: для undo активное, для redo отменённое
		a = room.lastOwnedLocked(claimed, !undone)
	} else {
		a = room.lookupLocked(actionID)
	}
	if a == nil {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, actionID)
	}
	if !domain.CanMutate(a, claimed) {
		s.sink.Deliver(protocol.MustEncode(deniedType, protocol.DeniedPayload{
			ActionID: a.ID,
			Reason:   protocol.ReasonNotOwner,
		}))
		e.record(room.id, deniedType, identity, a.ID)
		return fmt.Errorf("%w: %s", domain.ErrNotOwner, a.ID)
	}

	// повторный undo/redo данных не меняет, но событие рассылается снова
	a.Undone = undone
	room.touchLocked(e.now())
	room.broadcastLocked(protocol.MustEncode(okType, protocol.ActionToggledPayload{
		ActionID: a.ID,
		OwnerID:  a.OwnerID,
	}), nil)
	e.record(room.id, intent, identity, a.ID)
	return nil
}

func (e *Engine) record(roomID, event string, identity domain.Identity, actionID string) {
	if e.journal == nil {
		return
	}
	e.journal.Record(domain.JournalEntry{
		RoomID:    roomID,
		Event:     event,
		Identity:  identity,
		ActionID:  actionID,
		CreatedAt: e.now(),
	})
}

func roomStateMessage(snap domain.Snapshot) protocol.Message {
	return protocol.MustEncode(protocol.TypeRoomState, protocol.RoomStatePayload{
		Actions:      snap.Actions,
		Participants: snap.Participants,
	})
}
