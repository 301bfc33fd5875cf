package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/client"
	"github.com/ejamakovic/chat-app-FE/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	relayURL    string
	channelURL  string
	noReconnect bool
	timeout     time.Duration
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Terminal client for the anonymous chat relay",
		Long: `Joins the global chat under a handle minted by the relay.

Type a line to send it to the active thread. Commands:
  /global            switch to the global channel
  /open <user>       open the private thread with user
  /request <user>    ask user for a private chat
  /accept <user>     accept a chat request
  /decline <user>    decline a chat request
  /dismiss <id>      dismiss a notification
  /users             list online users
  /quit              log out and exit`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.relayURL, "relay", "http://localhost:3000", "relay base URL")
	cmd.Flags().StringVar(&opts.channelURL, "channel", "ws://localhost:8080/ws/chat", "push channel URL")
	cmd.Flags().BoolVar(&opts.noReconnect, "no-reconnect", false, "leave the push channel closed after a failure")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "relay request timeout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	level, err := config.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := config.NewLogger(os.Stderr, level)

	backend, err := client.NewHTTPBackend(opts.relayURL, opts.timeout)
	if err != nil {
		return err
	}

	term := newTerminal(out)
	c := client.New(client.Config{
		ChannelURL:       opts.channelURL,
		DisableReconnect: opts.noReconnect,
		Renderer:         term,
	}, backend, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gCtx)
	})
	g.Go(func() error {
		defer cancel()
		return readCommands(gCtx, c, term, in)
	})
	runErr := g.Wait()

	logoutCtx, done := context.WithTimeout(context.Background(), opts.timeout)
	defer done()
	if err := c.Logout(logoutCtx); err != nil {
		logger.Warn("logout failed", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("chat: %w", runErr)
	}
	return nil
}
