package postgres

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/board-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS room_journal (
	id         uuid PRIMARY KEY,
	room_id    text        NOT NULL,
	event      text        NOT NULL,
	identity   text        NOT NULL DEFAULT '',
	action_id  text        NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS room_journal_room_created_idx
	ON room_journal (room_id, created_at DESC, id DESC);
`

type JournalRepository struct {
	db *pgxpool.Pool
}

func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// EnsureSchema создаёт таблицу журнала, если её нет.
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, journalSchema)
	return err
}

// Insert пишет пачку через COPY. ID генерируется здесь, если не задан или не uuid.
func (r *JournalRepository) Insert(ctx context.Context, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			id = uuid.New()
		}
		rows = append(rows, []any{id, e.RoomID, e.Event, string(e.Identity), e.ActionID, e.CreatedAt})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"room_journal"},
		[]string{"id", "room_id", "event", "identity", "action_id", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy room_journal: %w", err)
	}
	return nil
}

// List возвращает записи комнаты с курсорной пагинацией (created_at,id DESC).
func (r *JournalRepository) List(ctx context.Context, roomID, after string, limit int) ([]domain.JournalEntry, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	const q = `
		SELECT id::text, room_id, event, identity, action_id, created_at
		FROM room_journal
		WHERE room_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3::uuid)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var createdAt any
	var id any
	if cur != nil {
		u, err := uuid.Parse(cur.ID)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad id: %v", ErrInvalidCursor, err)
		}
		createdAt = cur.CreatedAt
		id = u
	}

	rows, err := r.db.Query(ctx, q, roomID, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]domain.JournalEntry, 0, limit)
	for rows.Next() {
		var (
			e        domain.JournalEntry
			identity string
		)
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Event, &identity, &e.ActionID, &e.CreatedAt); err != nil {
			return nil, "", err
		}
		e.Identity = domain.Identity(identity)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}
