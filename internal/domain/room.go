package domain

import "time"

// RoomSummary: сводка по комнате для инспекции (HTTP/gRPC).
type RoomSummary struct {
	ID           string
	Participants int
	Sessions     int
	Actions      int
	LastActiveAt time.Time
}

// Snapshot: полное состояние комнаты на момент чтения.
type Snapshot struct {
	RoomID       string
	Actions      []Action
	Participants []Identity
}
