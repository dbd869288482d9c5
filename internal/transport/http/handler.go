package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/errs"

	"github.com/go-chi/chi/v5"
)

// Rooms: чтение состояния комнат. Инспекция никогда не создаёт комнату.
type Rooms interface {
	List() []domain.RoomSummary
	Snapshot(roomID string) (domain.Snapshot, error)
}

// JournalReader: постраничное чтение журнала активности.
type JournalReader interface {
	List(ctx context.Context, roomID, after string, limit int) ([]domain.JournalEntry, string, error)
}

type Handler struct {
	rooms   Rooms
	journal JournalReader // nil: журнал выключен
}

func NewHandler(rooms Rooms, journal JournalReader) *Handler {
	return &Handler{rooms: rooms, journal: journal}
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	list := h.rooms.List()
	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(list))}
	for _, s := range list {
		resp.Items = append(resp.Items, RoomItem{
			ID:           s.ID,
			Participants: s.Participants,
			Sessions:     s.Sessions,
			Actions:      s.Actions,
			LastActiveAt: s.LastActiveAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rooms.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, "handler.GetRoom", err)
		return
	}

	resp := RoomSnapshotResponse{
		ID:           snap.RoomID,
		Actions:      snap.Actions,
		Participants: snap.Participants,
	}
	if resp.Actions == nil {
		resp.Actions = []domain.Action{}
	}
	if resp.Participants == nil {
		resp.Participants = []domain.Identity{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}/journal?cursor=&limit=
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(r.Context(), w, "handler.GetJournal", fmt.Errorf("journal: %w", errs.ErrDisabled))
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(r.Context(), w, "handler.GetJournal", fmt.Errorf("%w: limit", errs.ErrInvalidInput))
			return
		}
		limit = n
	}

	items, next, err := h.journal.List(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(r.Context(), w, "handler.GetJournal", err)
		return
	}
	resp := JournalPageResponse{Items: make([]JournalItem, 0, len(items)), NextCursor: next}
	for _, e := range items {
		resp.Items = append(resp.Items, JournalItem{
			ID:        e.ID,
			Event:     e.Event,
			Identity:  e.Identity.String(),
			ActionID:  e.ActionID,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
