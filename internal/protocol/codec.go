package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
)

// Encode собирает конверт с уже сериализованным payload.
func Encode(typ string, payload any) (Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", typ, err)
	}
	return Message{Type: typ, Payload: b}, nil
}

// MustEncode: для payload-ов, которые сериализуются всегда (наши собственные структуры).
func MustEncode(typ string, payload any) Message {
	m, err := Encode(typ, payload)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse разбирает входящий кадр. Ошибка всегда оборачивает domain.ErrMalformedIntent.
func Parse(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", domain.ErrMalformedIntent)
	}
	return m, nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", domain.ErrMalformedIntent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}
	return nil
}

func DecodeJoin(raw json.RawMessage) (JoinPayload, error) {
	var p JoinPayload
	if err := decode(raw, &p); err != nil {
		return p, err
	}
	p.RoomID = strings.TrimSpace(p.RoomID)
	if p.RoomID == "" {
		return p, fmt.Errorf("%w: join.roomId is required", domain.ErrMalformedIntent)
	}
	if !p.Identity.Valid() {
		return p, fmt.Errorf("%w: join.identity is required", domain.ErrMalformedIntent)
	}
	return p, nil
}

// DecodeCreate возвращает готовое к добавлению действие.
// Пустой ownerId заполняется личностью сессии, нулевой createdAt: текущим временем.
// Новое действие всегда не отменено, даже если клиент прислал undone.
func DecodeCreate(raw json.RawMessage, session domain.Identity, now time.Time) (domain.Action, error) {
	var p CreatePayload
	if err := decode(raw, &p); err != nil {
		return domain.Action{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return domain.Action{}, fmt.Errorf("%w: create.id is required", domain.ErrMalformedIntent)
	}
	if p.Kind == "" {
		return domain.Action{}, fmt.Errorf("%w: create.kind is required", domain.ErrMalformedIntent)
	}
	payload, err := domain.ParsePayload(p.Payload)
	if err != nil {
		return domain.Action{}, fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}
	owner := p.OwnerID
	if !owner.Valid() {
		owner = session
	}
	createdAt := p.CreatedAt
	if createdAt <= 0 {
		createdAt = now.UnixMilli()
	}
	return domain.Action{
		ID:        p.ID,
		OwnerID:   owner,
		Kind:      p.Kind,
		Payload:   payload,
		CreatedAt: createdAt,
	}, nil
}

// UpdateIntent: разобранный update с payload, проверенным на объектность.
type UpdateIntent struct {
	ActionID       string
	Payload        domain.Payload
	Replace        bool
	ClaimedOwnerID domain.Identity
}

func DecodeUpdate(raw json.RawMessage) (UpdateIntent, error) {
	var p UpdatePayload
	if err := decode(raw, &p); err != nil {
		return UpdateIntent{}, err
	}
	if p.ActionID == "" {
		return UpdateIntent{}, fmt.Errorf("%w: update.actionId is required", domain.ErrMalformedIntent)
	}
	if !p.ClaimedOwnerID.Valid() {
		return UpdateIntent{}, fmt.Errorf("%w: update.claimedOwnerId is required", domain.ErrMalformedIntent)
	}
	if len(p.Payload) == 0 || string(p.Payload) == "null" {
		return UpdateIntent{}, fmt.Errorf("%w: update.payload is required", domain.ErrMalformedIntent)
	}
	payload, err := domain.ParsePayload(p.Payload)
	if err != nil {
		return UpdateIntent{}, fmt.Errorf("%w: %v", domain.ErrMalformedIntent, err)
	}
	return UpdateIntent{
		ActionID:       p.ActionID,
		Payload:        payload,
		Replace:        p.Replace,
		ClaimedOwnerID: p.ClaimedOwnerID,
	}, nil
}

func DecodeToggle(raw json.RawMessage) (TogglePayload, error) {
	var p TogglePayload
	if err := decode(raw, &p); err != nil {
		return p, err
	}
	if !p.ClaimedOwnerID.Valid() {
		return p, fmt.Errorf("%w: claimedOwnerId is required", domain.ErrMalformedIntent)
	}
	return p, nil
}
