package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/models"

	"github.com/gorilla/websocket"
)

var ErrChannelClosed = errors.New("channel is closed")

type ChannelState int

const (
	ChannelConnecting ChannelState = iota
	ChannelOpen
	ChannelClosed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelConnecting:
		return "connecting"
	case ChannelOpen:
		return "open"
	default:
		return "closed"
	}
}

// FrameConn is the part of *websocket.Conn the channel uses.
type FrameConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type Dialer func(ctx context.Context, url string) (FrameConn, error)

// WebsocketDialer dials the push channel with gorilla/websocket.
func WebsocketDialer(header http.Header) Dialer {
	return func(ctx context.Context, url string) (FrameConn, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", url, err)
		}
		return conn, nil
	}
}

const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 30 * time.Second
)

type ChannelConfig struct {
	URL string
	// Key is sent with the init frame so the backend can check the handle.
	Key  string
	Dial Dialer
	// DisableReconnect leaves the channel closed after the first failure.
	DisableReconnect bool
	MinBackoff       time.Duration
	MaxBackoff       time.Duration
}

// Channel is the long-lived push connection of one participant.
// Frames read from it are handed to onFrame; state changes to onState.
type Channel struct {
	config  ChannelConfig
	handle  string
	onFrame func(models.Frame)
	onState func(ChannelState)
	log     *slog.Logger

	mu    sync.Mutex
	conn  FrameConn
	state ChannelState
}

func NewChannel(config ChannelConfig, handle string, onFrame func(models.Frame), onState func(ChannelState), logger *slog.Logger) *Channel {
	if config.Dial == nil {
		config.Dial = WebsocketDialer(nil)
	}
	if config.MinBackoff <= 0 {
		config.MinBackoff = DefaultMinBackoff
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = max(DefaultMaxBackoff, config.MinBackoff)
	}
	if onFrame == nil {
		onFrame = func(models.Frame) {}
	}
	if onState == nil {
		onState = func(ChannelState) {}
	}
	return &Channel{
		config:  config,
		handle:  handle,
		onFrame: onFrame,
		onState: onState,
		log:     logger,
		state:   ChannelConnecting,
	}
}

// Run keeps the channel connected until ctx is done. Without reconnects it
// returns after the first close.
func (c *Channel) Run(ctx context.Context) error {
	backoff := c.config.MinBackoff
	for {
		c.setState(ChannelConnecting)
		conn, err := c.config.Dial(ctx, c.config.URL)
		if err == nil {
			backoff = c.config.MinBackoff
			err = c.serve(ctx, conn)
		}
		c.setState(ChannelClosed)

		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("channel closed", "url", c.config.URL, "error", err)
		if c.config.DisableReconnect {
			return nil
		}

		wait := backoff + time.Duration(rand.Int64N(int64(backoff/2+1)))
		c.log.Info("reconnecting channel", "backoff", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		backoff = min(backoff*2, c.config.MaxBackoff)
	}
}

func (c *Channel) serve(ctx context.Context, conn FrameConn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(ChannelOpen)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	if c.handle != "" {
		if err := c.Send(models.InitFrame(c.handle, c.config.Key)); err != nil {
			return fmt.Errorf("failed to announce handle: %w", err)
		}
	}

	for {
		var frame models.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		c.onFrame(frame)
	}
}

// Send writes a frame on the open connection. It fails with
// ErrChannelClosed instead of queueing while the channel is down.
func (c *Channel) Send(frame models.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.state != ChannelOpen {
		return ErrChannelClosed
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	return nil
}

func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(state ChannelState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if changed {
		c.onState(state)
	}
}
