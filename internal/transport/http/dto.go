package http

import (
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RoomItem struct {
	ID           string    `json:"id"`
	Participants int       `json:"participants"`
	Sessions     int       `json:"sessions"`
	Actions      int       `json:"actions"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}

type RoomSnapshotResponse struct {
	ID           string            `json:"id"`
	Actions      []domain.Action   `json:"actions"`
	Participants []domain.Identity `json:"participants"`
}

type JournalItem struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Identity  string    `json:"identity,omitempty"`
	ActionID  string    `json:"actionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type JournalPageResponse struct {
	Items      []JournalItem `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}
