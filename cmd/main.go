package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/board-service/config"
	"github.com/cwrk-planet/board-service/internal/engine"
	"github.com/cwrk-planet/board-service/internal/journal"
	"github.com/cwrk-planet/board-service/internal/postgres"
	grpcx "github.com/cwrk-planet/board-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/board-service/internal/transport/http"
	"github.com/cwrk-planet/board-service/internal/transport/ws"
	"github.com/cwrk-planet/board-service/pkg/logger"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting board-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	if err := run(cfg); err != nil {
		slog.Error("board-service stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// журнал пишется до остановки серверов, поэтому у него свой контекст
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()

	g, gctx := errgroup.WithContext(ctx)

	// --- postgres journal (optional) ---
	opts := []engine.Option{engine.WithKindValidation(cfg.Rooms.ValidateKinds)}
	var journalReader httpx.JournalReader
	if cfg.JournalEnabled() {
		db, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
			ApplicationName: cfg.Postgres.ApplicationName,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		repo := postgres.NewJournalRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		rec := journal.NewRecorder(repo, journal.Config{
			Buffer:     cfg.Journal.Buffer,
			BatchSize:  cfg.Journal.BatchSize,
			FlushEvery: cfg.Journal.FlushEvery,
		})
		opts = append(opts, engine.WithJournal(rec))
		journalReader = repo

		g.Go(func() error {
			err := rec.Run(journalCtx)
			slog.Info("journal stopped", "written", rec.Written(), "dropped", rec.Dropped())
			return err
		})
		slog.Info("journal enabled", "buffer", cfg.Journal.Buffer, "batch", cfg.Journal.BatchSize)
	} else {
		slog.Info("journal disabled: postgres.dsn is empty")
	}

	// --- engine ---
	eng := engine.New(engine.NewRegistry(), opts...)
	g.Go(func() error {
		engine.RunReaper(gctx, eng.Registry(), cfg.Rooms.ReapEvery, cfg.Rooms.ReapAfter)
		return nil
	})

	// --- WS & HTTP ---
	wsServer := ws.NewServer(eng, ws.Config{
		PingEvery:      cfg.WS.PingEvery,
		WriteTimeout:   cfg.WS.WriteTimeout,
		ReadLimit:      cfg.WS.ReadLimit,
		SendBuffer:     cfg.WS.SendBuffer,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	handler := httpx.NewHandler(eng.Registry(), journalReader)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpx.NewRouter(handler, wsServer.HandleWS, cfg.HTTP.AllowedOrigins),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// --- gRPC (optional) ---
	var grpcServer *grpc.Server
	if cfg.GRPC.Addr != "" {
		grpcServer = grpc.NewServer(
			grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(10*time.Second)),
			grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
		)
		grpcx.Register(grpcServer, grpcx.NewServer(eng.Registry()))

		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		g.Go(func() error {
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			return grpcServer.Serve(lis)
		})
	}

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// hijacked WS соединения Shutdown не закрывает
		n := wsServer.Hub().CloseAll()
		err := httpSrv.Shutdown(shutdownCtx)
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		slog.Info("servers stopped", "ws_closed", n)
		stopJournal()
		return err
	})

	return g.Wait()
}
