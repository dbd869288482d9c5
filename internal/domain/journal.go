package domain

import "time"

// JournalEntry: запись журнала активности комнаты. В состояние комнаты не читается.
type JournalEntry struct {
	ID        string    `db:"id"`
	RoomID    string    `db:"room_id"`
	Event     string    `db:"event"`
	Identity  Identity  `db:"identity"`
	ActionID  string    `db:"action_id"`
	CreatedAt time.Time `db:"created_at"`
}
