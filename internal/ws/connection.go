package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/auth"
	"github.com/ejamakovic/chat-app-FE/internal/content"
	"github.com/ejamakovic/chat-app-FE/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
}

type frameHub interface {
	Attach() (string, chan models.Frame)
	Announce(connID, handle string)
	Detach(connID string)
}

type Connection struct {
	ws         wsConnection
	hub        frameHub
	log        *slog.Logger
	connID     string
	secret     string
	fromClient chan models.Frame
	fromServer chan models.Frame
	errorCh    chan error
}

func NewConnection(
	hub frameHub,
	ws wsConnection,
	secret string,
	logger *slog.Logger,
) *Connection {
	connID, fromServer := hub.Attach()
	return &Connection{
		ws:         ws,
		hub:        hub,
		log:        logger.With("conn", connID),
		connID:     connID,
		secret:     secret,
		fromClient: make(chan models.Frame),
		fromServer: fromServer,
		errorCh:    make(chan error, 2),
	}
}

func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.fromClient)
		close(c.errorCh)
		c.hub.Detach(c.connID)
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpMessages(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
		select {
		case err = <-c.errorCh:
		default:
		}
	}
	_ = c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpMessages(ctx context.Context) error {
	for {
		var frame models.Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			return err
		}
		select {
		case c.fromClient <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case frame := <-c.fromClient:
			c.processClientFrame(frame)
		case frame, ok := <-c.fromServer:
			if !ok {
				return nil
			}
			if err := c.ws.WriteJSON(frame); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Only init frames travel upstream; messages are sent over REST.
func (c *Connection) processClientFrame(frame models.Frame) {
	switch frame.Type {
	case models.FrameTypeInit:
		if err := content.ValidateUsername(frame.Username); err != nil {
			c.log.Warn("ignoring init frame", "user", frame.Username, "error", err)
			return
		}
		if !auth.VerifyChannelKey(c.secret, frame.Username, frame.Key) {
			c.log.Warn("ignoring init frame with a bad channel key", "user", frame.Username)
			return
		}
		c.hub.Announce(c.connID, frame.Username)
	default:
		c.log.Debug("ignoring client frame", "type", frame.Type)
	}
}
