package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/auth"
	"github.com/ejamakovic/chat-app-FE/internal/commands"
	"github.com/ejamakovic/chat-app-FE/internal/config"
	"github.com/ejamakovic/chat-app-FE/internal/gateway"
	"github.com/ejamakovic/chat-app-FE/internal/http"

	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("relay", flag.ContinueOnError)
	addSession := flags.String("add-session", "", "Handle to provision (prints a session token bound to it)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if *addSession != "" {
		return commands.AddSession(ctx, *addSession, cfg, os.Stdout)
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	backend := gateway.New(cfg.BackendURL, cfg.RequestTimeout)

	sessions, err := auth.NewService(auth.Config{
		Policy:        auth.Policy(cfg.SessionPolicy),
		ChannelSecret: cfg.ChannelSecret,
	}, backend, logger)
	if err != nil {
		return err
	}

	adminServer := http.NewAdminServer(sessions, backend, cfg.AdminAddr, logger)
	relayServer := http.NewRelayServer(sessions, backend, cfg.SessionCookie, cfg.RelayAddr, logger)

	g, gCtx := errgroup.WithContext(ctx)

	// Start Admin Server
	g.Go(func() error {
		return adminServer.Start()
	})

	// Start Relay Server
	g.Go(func() error {
		return relayServer.Start()
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown", "error", err)
		}
		if err := relayServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("relay server shutdown", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
