package protocol

import (
	"encoding/json"

	"github.com/cwrk-planet/board-service/internal/domain"
)

// Типы событий клиента (client → server)
const (
	TypeJoin   = "join"
	TypeCreate = "create"
	TypeUpdate = "update"
	TypeUndo   = "undo"
	TypeRedo   = "redo"
)

// Типы событий сервера (server → client)
const (
	TypeRoomState         = "room-state"         // снапшот для подключившегося
	TypeParticipantJoined = "participant-joined" // всем, кроме подключившегося
	TypeParticipantLeft   = "participant-left"   // всем оставшимся
	TypeActionAdded       = "action-added"       // всем, кроме автора
	TypeActionUpdated     = "action-updated"     // всей комнате, включая автора
	TypeActionUndone      = "action-undone"
	TypeActionRedone      = "action-redone"
	TypeUpdateDenied      = "update-denied" // только запросившему
	TypeUndoDenied        = "undo-denied"
	TypeRedoDenied        = "redo-denied"
)

const ReasonNotOwner = "not-owner"

// Message: конверт каждого кадра. Payload хранится уже закодированным:
// при рассылке он сериализуется один раз под локом комнаты.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomID   string          `json:"roomId"`
	Identity domain.Identity `json:"identity"`
}

type RoomStatePayload struct {
	Actions      []domain.Action   `json:"actions"`
	Participants []domain.Identity `json:"participants"`
}

type ParticipantPayload struct {
	Identity domain.Identity `json:"identity"`
}

// CreatePayload: действие в том виде, в каком его прислал клиент.
type CreatePayload struct {
	ID        string          `json:"id"`
	OwnerID   domain.Identity `json:"ownerId"`
	Kind      domain.Kind     `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt int64           `json:"createdAt,omitempty"`
}

type UpdatePayload struct {
	ActionID       string          `json:"actionId"`
	Payload        json.RawMessage `json:"payload"`
	Replace        bool            `json:"replace"`
	ClaimedOwnerID domain.Identity `json:"claimedOwnerId"`
}

// TogglePayload используется и для undo, и для redo.
// Пустой actionId означает «последнее подходящее действие автора».
type TogglePayload struct {
	ActionID       string          `json:"actionId,omitempty"`
	ClaimedOwnerID domain.Identity `json:"claimedOwnerId"`
}

type ActionUpdatedPayload struct {
	ActionID string         `json:"actionId"`
	Payload  domain.Payload `json:"payload"`
}

type ActionToggledPayload struct {
	ActionID string          `json:"actionId"`
	OwnerID  domain.Identity `json:"ownerId"`
}

type DeniedPayload struct {
	ActionID string `json:"actionId"`
	Reason   string `json:"reason"`
}
