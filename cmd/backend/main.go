package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/config"
	"github.com/ejamakovic/chat-app-FE/internal/http"
	"github.com/ejamakovic/chat-app-FE/internal/storage"
	"github.com/ejamakovic/chat-app-FE/internal/ws"

	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	db, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// Nobody is attached right after a restart.
	if err := db.ResetPresence(); err != nil {
		return err
	}

	hub := ws.NewHub(db, logger)
	server := http.NewBackendServer(db, hub, cfg.BackendAddr, cfg.ChannelSecret, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down backend")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("backend shutdown", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("backend error", "error", err)
		os.Exit(1)
	}
}
