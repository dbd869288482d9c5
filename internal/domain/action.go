package domain

import (
	"encoding/json"
	"fmt"
)

// Kind: закрытый набор типов операций рисования. Движок его не интерпретирует.
type Kind string

const (
	KindPath    Kind = "path"
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindImage   Kind = "image"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPath, KindRect, KindEllipse, KindImage:
		return true
	default:
		return false
	}
}

// Payload: непрозрачный объект конкретного типа операции.
// Значения полей хранятся как сырой JSON, поэтому слияние: просто объединение ключей.
type Payload map[string]json.RawMessage

// ParsePayload принимает только JSON-объект; null даёт пустой payload.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadNotObject, err)
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge возвращает новый payload: поля patch перезаписывают одноимённые, остальные сохраняются.
func (p Payload) Merge(patch Payload) Payload {
	out := make(Payload, len(p)+len(patch))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Action: одна операция рисования в журнале комнаты.
// ID и OwnerID неизменны после создания; Payload и Undone меняются на месте.
type Action struct {
	ID        string   `json:"id"`
	OwnerID   Identity `json:"ownerId"`
	Kind      Kind     `json:"kind"`
	Payload   Payload  `json:"payload"`
	Undone    bool     `json:"undone"`
	CreatedAt int64    `json:"createdAt"` // unix ms, только подсказка для сортировки
}

// Clone копирует действие так, чтобы снимок не разделял map с журналом.
func (a Action) Clone() Action {
	a.Payload = a.Payload.Clone()
	return a
}
