package engine

import (
	"sync"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/protocol"

	"github.com/google/uuid"
)

// Sink: исходящий канал одной сессии. Deliver не должен блокировать:
// его вызывают под локом комнаты.
type Sink interface {
	Deliver(msg protocol.Message)
}

// SinkFunc позволяет использовать функцию как Sink.
type SinkFunc func(msg protocol.Message)

func (f SinkFunc) Deliver(msg protocol.Message) { f(msg) }

// Session: одно живое подключение. Комната и личность задаются один раз при join.
type Session struct {
	id   string
	sink Sink

	mu       sync.Mutex
	room     *Room
	identity domain.Identity
	closed   bool
}

func newSession(sink Sink) *Session {
	return &Session{id: uuid.NewString(), sink: sink}
}

func (s *Session) ID() string { return s.id }

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ""
	}
	return s.room.id
}

func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil
}

// binding возвращает комнату и личность для мутаций.
func (s *Session) binding() (*Room, domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, "", domain.ErrSessionClosed
	}
	if s.room == nil {
		return nil, "", domain.ErrNotJoined
	}
	return s.room, s.identity, nil
}
