package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborapp/harbor/internal/api"
	"github.com/harborapp/harbor/internal/config"
	"github.com/harborapp/harbor/internal/events"
	"github.com/harborapp/harbor/internal/inbox"
	"github.com/harborapp/harbor/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("harbor starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backing store: Postgres when configured, JSON snapshot file
	// otherwise. Both are load-all/save-all; neither coordinates across
	// instances.
	var backend inbox.Backend
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		backend = pg
		slog.Info("database connected")
	} else {
		backend = store.NewFileStore(cfg.StorePath)
		slog.Info("file store ready", "path", cfg.StorePath)
	}

	// NATS publisher (optional — harbor works without a broker, just no
	// lifecycle events)
	var pub *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		pub, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without lifecycle events")
	}

	inboxSvc := inbox.NewService(backend, slog.Default(),
		inbox.WithLimits(cfg.MaxInboxItems, cfg.MaxContentLength),
		inbox.WithPublisher(pub),
	)
	defer inboxSvc.Close()

	srv := api.NewServer(cfg.Port, inboxSvc, pub, slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("harbor ready", "port", cfg.Port)

	// Graceful shutdown: stop accepting requests and drain in-flight
	// ones before the deferred service close tears down persistence.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("harbor stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
