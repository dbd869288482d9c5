package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
)

// Registry: процессная карта roomID -> *Room. Комнаты создаются лениво.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// GetOrCreate идемпотентен: побочный эффект только при первом вызове для roomID.
func (r *Registry) GetOrCreate(roomID string) *Room {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok {
		return room
	}
	room = newRoom(roomID, r.now())
	r.rooms[roomID] = room
	return room
}

// Lookup никогда не создаёт комнату.
func (r *Registry) Lookup(roomID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// Snapshot читает состояние существующей комнаты и никогда её не создаёт.
func (r *Registry) Snapshot(roomID string) (domain.Snapshot, error) {
	room, ok := r.Lookup(roomID)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomID)
	}
	return room.Snapshot(), nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// List возвращает сводки всех комнат, отсортированные по ID.
func (r *Registry) List() []domain.RoomSummary {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reap удаляет пустые комнаты, неактивные дольше idle, и возвращает их ID.
// Комната помечается закрытой под своим локом, поэтому join, успевший получить
// на неё ссылку, увидит closed и пересоздаст комнату.
func (r *Registry) Reap(idle time.Duration) []string {
	if idle <= 0 {
		return nil
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for id, room := range r.rooms {
		room.mu.Lock()
		if room.idleLocked(now, idle) {
			room.closed = true
			delete(r.rooms, id)
			reaped = append(reaped, id)
		}
		room.mu.Unlock()
	}
	sort.Strings(reaped)
	return reaped
}
