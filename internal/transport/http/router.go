package http

import (
	"net/http"

	httpmw "github.com/cwrk-planet/board-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, ws http.HandlerFunc, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.EchoRequestID)
	r.Use(httpmw.WithRequestLoggerCtx)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", httpmw.HeaderRequestID},
		ExposedHeaders:   []string{httpmw.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS endpoint: долгоживущее соединение, без логирования запроса
	r.Get("/ws", ws)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.RequestLogger)

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Get("/", h.ListRooms)
			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Get("/journal", h.GetJournal)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
