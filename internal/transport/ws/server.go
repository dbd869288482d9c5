package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/engine"
	"github.com/cwrk-planet/board-service/internal/protocol"
	"github.com/cwrk-planet/board-service/pkg/logger"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine: то, что нужно транспорту от движка синхронизации.
type Engine interface {
	NewSession(sink engine.Sink) *engine.Session
	Handle(ctx context.Context, s *engine.Session, msg protocol.Message) error
	Disconnect(ctx context.Context, s *engine.Session)
}

type Config struct {
	PingEvery      time.Duration
	WriteTimeout   time.Duration
	ReadLimit      int64
	SendBuffer     int
	AllowedOrigins []string // "*" или пусто: любой Origin
}

type Server struct {
	upgrader websocket.Upgrader
	engine   Engine
	hub      *Hub
	cfg      Config
	tracer   trace.Tracer
}

func NewServer(eng Engine, cfg Config) *Server {
	if cfg.PingEvery <= 0 {
		cfg.PingEvery = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	s := &Server{
		engine: eng,
		hub:    NewHub(),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/cwrk-planet/board-service/internal/transport/ws"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

// WS endpoint: GET /ws. Комнату и личность клиент сообщает первым кадром join.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		logger.FromContext(r.Context()).Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, s.cfg.SendBuffer)
	sess := s.engine.NewSession(c)
	s.hub.Add(c)

	l := logger.FromContext(r.Context()).With("session", sess.ID(), "remote_ip", r.RemoteAddr)
	ctx := logger.WithContext(r.Context(), l)
	l.Debug("ws connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, c)
	}()
	s.readLoop(ctx, c, sess)

	// отключение синхронное: participant-left уходит до возврата из обработчика
	s.engine.Disconnect(ctx, sess)
	c.shutdown(0, "")
	<-done
	s.hub.Remove(c)

	l.Debug("ws disconnected", "room", sess.RoomID(), "identity", sess.Identity())
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, sess *engine.Session) {
	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !c.isClosed() {
				logger.FromContext(ctx).Debug("ws read failed", "err", err)
			}
			return
		}

		msg, err := protocol.Parse(data)
		if err != nil {
			logger.FromContext(ctx).Debug("ws frame dropped", "err", err)
			continue
		}
		s.dispatch(ctx, sess, msg)
	}
}

// dispatch применяет одно намерение. Ошибки клиенту не отправляются: отказ по
// владению движок уже доставил сам, остальное молча отбрасывается.
func (s *Server) dispatch(ctx context.Context, sess *engine.Session, msg protocol.Message) {
	ctx, span := s.tracer.Start(ctx, "ws."+msg.Type, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	err := s.engine.Handle(ctx, sess, msg)
	span.SetAttributes(
		attribute.String("board.session", sess.ID()),
		attribute.String("board.room", sess.RoomID()),
	)
	if err == nil {
		return
	}

	l := logger.FromContext(ctx)
	switch {
	case errors.Is(err, domain.ErrNotOwner):
		span.SetAttributes(attribute.Bool("board.denied", true))
		l.Debug("intent denied", "type", msg.Type, "err", err)
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, domain.ErrDuplicateAction):
		l.Debug("intent ignored", "type", msg.Type, "err", err)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.Debug("intent rejected", "type", msg.Type, "err", err)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.cfg.PingEvery)
	defer ticker.Stop()
	// закрытие сокета будит readLoop
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.FromContext(ctx).Debug("ws write failed", "err", err)
				c.shutdown(0, "")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				c.shutdown(0, "")
				return
			}
		case <-c.closed:
			if c.closeCode != 0 {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(c.closeCode, c.closeReason),
					time.Now().Add(s.cfg.WriteTimeout))
			}
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// не браузер
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Scheme+"://"+u.Host) {
			return true
		}
	}
	slog.Debug("ws origin rejected", "origin", origin)
	return false
}
