package ws

import (
	"log/slog"
	"sync"

	"github.com/cwrk-planet/board-service/internal/protocol"

	"github.com/gorilla/websocket"
)

// wsConn: исходящая сторона подключения. Deliver вызывается движком под локом
// комнаты, поэтому только кладёт кадр в ограниченную очередь. Переполнение
// означает медленного клиента: подключение закрывается, клиент переподключится
// и получит свежий room-state.
type wsConn struct {
	conn *websocket.Conn
	out  chan protocol.Message

	closeOnce   sync.Once
	closed      chan struct{}
	closeCode   int
	closeReason string
}

func newWsConn(conn *websocket.Conn, buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 256
	}
	return &wsConn{
		conn:   conn,
		out:    make(chan protocol.Message, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Deliver(msg protocol.Message) {
	select {
	case <-c.closed:
		return
	default:
	}

	select {
	case c.out <- msg:
	default:
		slog.Warn("ws send buffer overflow, closing connection", "type", msg.Type, "buffer", cap(c.out))
		c.shutdown(websocket.CloseTryAgainLater, "slow consumer")
	}
}

// shutdown идемпотентен. code == 0: закрыть без close-кадра.
func (c *wsConn) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.closed)
	})
}

func (c *wsConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
