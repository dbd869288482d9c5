package engine

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/protocol"
)

// Handle разбирает входящее намерение и вызывает соответствующую операцию.
// Возвращённая ошибка нужна только для логов: транспорт её клиенту не отправляет.
func (e *Engine) Handle(ctx context.Context, s *Session, msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeJoin:
		p, err := protocol.DecodeJoin(msg.Payload)
		if err != nil {
			return err
		}
		return e.Join(ctx, s, p.RoomID, p.Identity)

	case protocol.TypeCreate:
		a, err := protocol.DecodeCreate(msg.Payload, s.Identity(), e.now())
		if err != nil {
			return err
		}
		return e.Create(s, a)

	case protocol.TypeUpdate:
		in, err := protocol.DecodeUpdate(msg.Payload)
		if err != nil {
			return err
		}
		return e.Update(s, in)

	case protocol.TypeUndo, protocol.TypeRedo:
		p, err := protocol.DecodeToggle(msg.Payload)
		if err != nil {
			return err
		}
		if msg.Type == protocol.TypeUndo {
			return e.Undo(s, p.ActionID, p.ClaimedOwnerID)
		}
		return e.Redo(s, p.ActionID, p.ClaimedOwnerID)

	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrMalformedIntent, msg.Type)
	}
}
