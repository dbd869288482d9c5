package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("client closed")

// Event: то, что клиент применил к реплике (или отказ сервера).
type Event struct {
	Type     string
	ActionID string
	Identity string
	Reason   string
}

type Config struct {
	URL      string // ws://host/ws
	RoomID   string
	Identity string
	Dialer   *websocket.Dialer // default: websocket.DefaultDialer
	Events   int               // ёмкость ленты событий, default 256
	Now      func() time.Time
}

// Client - эталонный участник. Держит локальную реплику комнаты, применяет
// собственные create оптимистично, а update/undo/redo: после подтверждения сервером.
type Client struct {
	cfg  Config
	conn *websocket.Conn

	writeMu sync.Mutex

	mu  sync.Mutex
	rep *replica
	err error

	events chan Event
	done   chan struct{}
}

// Connect подключается, отправляет join и ждёт первый room-state.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RoomID == "" || cfg.Identity == "" {
		return nil, fmt.Errorf("client: room id and identity are required")
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Events <= 0 {
		cfg.Events = 256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	conn, _, err := cfg.Dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	c := &Client{
		cfg:    cfg,
		conn:   conn,
		rep:    newReplica(),
		events: make(chan Event, cfg.Events),
		done:   make(chan struct{}),
	}

	if err := c.send(protocol.TypeJoin, protocol.JoinPayload{
		RoomID:   cfg.RoomID,
		Identity: domain.Identity(cfg.Identity),
	}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := c.awaitState(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) awaitState(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
		defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	}
	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("client: await room-state: %w", err)
		}
		if msg.Type == protocol.TypeRoomState {
			c.apply(msg)
			return nil
		}
	}
}

func (c *Client) Identity() string { return c.cfg.Identity }

// Events: лента применённых событий. Закрывается, когда соединение завершено.
// Если её не читать, новые события отбрасываются; реплика при этом обновляется.
func (c *Client) Events() <-chan Event { return c.events }

// Done закрывается при завершении соединения.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rep.state()
}

// Create применяет действие локально и отправляет его. ID генерируется клиентом.
func (c *Client) Create(kind domain.Kind, payload domain.Payload) (Action, error) {
	a := Action{
		ID:        uuid.NewString(),
		OwnerID:   domain.Identity(c.cfg.Identity),
		Kind:      kind,
		Payload:   payload.Clone(),
		CreatedAt: c.cfg.Now().UnixMilli(),
	}
	c.mu.Lock()
	c.rep.add(a)
	c.mu.Unlock()

	if err := c.send(protocol.TypeCreate, a); err != nil {
		return Action{}, err
	}
	return a.Clone(), nil
}

// Preview применяет промежуточный кадр жеста. Он виден только локально, на сервер не уходит.
func (c *Client) Preview(actionID string, patch domain.Payload) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rep.preview(actionID, patch, false)
}

// Commit отправляет итоговый update. Локальная реплика меняется по action-updated,
// а при update-denied откатывается к состоянию до жеста.
func (c *Client) Commit(actionID string, payload domain.Payload, replace bool) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: marshal payload: %w", err)
	}
	return c.send(protocol.TypeUpdate, protocol.UpdatePayload{
		ActionID:       actionID,
		Payload:        raw,
		Replace:        replace,
		ClaimedOwnerID: domain.Identity(c.cfg.Identity),
	})
}

// Undo: пустой actionID означает последнее собственное активное действие.
func (c *Client) Undo(actionID string) error {
	return c.send(protocol.TypeUndo, protocol.TogglePayload{
		ActionID:       actionID,
		ClaimedOwnerID: domain.Identity(c.cfg.Identity),
	})
}

// Redo: пустой actionID означает последнее собственное отменённое действие.
func (c *Client) Redo(actionID string) error {
	return c.send(protocol.TypeRedo, protocol.TogglePayload{
		ActionID:       actionID,
		ClaimedOwnerID: domain.Identity(c.cfg.Identity),
	})
}

// Close завершает соединение и ждёт остановки читателя.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) send(typ string, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	msg, err := protocol.Encode(typ, payload)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", typ, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("client: send %s: %w", typ, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.err = err
			}
			c.mu.Unlock()
			return
		}
		if ev, ok := c.apply(msg); ok {
			select {
			case c.events <- ev:
			default:
				slog.Debug("client event feed full, event dropped", "type", ev.Type)
			}
		}
	}
}

// apply меняет реплику по событию сервера. ok=false: событие ничего не изменило.
func (c *Client) apply(msg protocol.Message) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := Event{Type: msg.Type}
	switch msg.Type {
	case protocol.TypeRoomState:
		var p protocol.RoomStatePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ev, false
		}
		c.rep.reset(p.Actions, p.Participants)
		return ev, true

	case protocol.TypeParticipantJoined, protocol.TypeParticipantLeft:
		var p protocol.ParticipantPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ev, false
		}
		ev.Identity = p.Identity.String()
		if msg.Type == protocol.TypeParticipantJoined {
			return ev, c.rep.join(ev.Identity)
		}
		return ev, c.rep.leave(ev.Identity)

	case protocol.TypeActionAdded:
		var a Action
		if json.Unmarshal(msg.Payload, &a) != nil {
			return ev, false
		}
		ev.ActionID, ev.Identity = a.ID, a.OwnerID.String()
		return ev, c.rep.add(a)

	case protocol.TypeActionUpdated:
		var p protocol.ActionUpdatedPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ev, false
		}
		ev.ActionID = p.ActionID
		return ev, c.rep.confirm(p.ActionID, p.Payload)

	case protocol.TypeActionUndone, protocol.TypeActionRedone:
		var p protocol.ActionToggledPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ev, false
		}
		ev.ActionID, ev.Identity = p.ActionID, p.OwnerID.String()
		return ev, c.rep.setUndone(p.ActionID, msg.Type == protocol.TypeActionUndone)

	case protocol.TypeUpdateDenied, protocol.TypeUndoDenied, protocol.TypeRedoDenied:
		var p protocol.DeniedPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ev, false
		}
		ev.ActionID, ev.Reason = p.ActionID, p.Reason
		if msg.Type == protocol.TypeUpdateDenied {
			c.rep.rollback(p.ActionID)
		}
		// отказ всегда доходит до вызывающего, даже если откатывать было нечего
		return ev, true
	}
	return ev, false
}
