package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub: все живые подключения процесса. Членство в комнатах ведёт движок,
// здесь только учёт для graceful shutdown и инспекции.
type Hub struct {
	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*wsConn]struct{})}
}

func (h *Hub) Add(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) Remove(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll закрывает все подключения с кодом 1001 (going away).
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.shutdown(websocket.CloseGoingAway, "server shutdown")
	}
	return len(conns)
}
