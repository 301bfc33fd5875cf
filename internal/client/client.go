package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/chat"
	"github.com/ejamakovic/chat-app-FE/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultPresenceInterval = 60 * time.Second
	eventQueueSize          = 64
)

var (
	ErrClientStopped        = errors.New("client stopped")
	ErrNotificationNotFound = errors.New("notification not found")
)

type Config struct {
	ChannelURL       string
	Dial             Dialer
	DisableReconnect bool
	MinBackoff       time.Duration
	MaxBackoff       time.Duration

	PresenceInterval time.Duration
	NotificationTTL  time.Duration
	Scheduler        Scheduler
	MaxRecords       int
	Renderer         Renderer
}

// Client is the session context of one participant. All of its state is
// owned by the loop started in Run; the exported methods only enqueue
// events and wait for replies where there are any.
type Client struct {
	config  Config
	backend Backend
	render  Renderer
	log     *slog.Logger

	events   chan any
	done     chan struct{}
	inflight sync.WaitGroup

	// Loop owned.
	self         string
	router       *Router
	presence     *Presence
	notes        *Notifications
	handshakes   *Handshakes
	channel      *Channel
	channelState ChannelState
	unread       map[string]int
}

func New(config Config, backend Backend, logger *slog.Logger) *Client {
	if config.PresenceInterval <= 0 {
		config.PresenceInterval = DefaultPresenceInterval
	}
	render := config.Renderer
	if render == nil {
		render = nopRenderer{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		config:  config,
		backend: backend,
		render:  render,
		log:     logger,
		events:  make(chan any, eventQueueSize),
		done:    make(chan struct{}),
		unread:  make(map[string]int),
	}
}

// Run resolves the session, then runs the event loop, the push channel and
// the presence poller until ctx is done. It must be called once.
func (c *Client) Run(ctx context.Context) error {
	sess, err := c.backend.Session(ctx)
	if err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	c.log = c.log.With("user", sess.Username)
	c.log.Info("session established")

	g, gCtx := errgroup.WithContext(ctx)
	c.setup(gCtx, sess)
	c.openGlobal(gCtx)

	g.Go(func() error {
		return c.loop(gCtx)
	})
	g.Go(func() error {
		return c.channel.Run(gCtx)
	})
	g.Go(func() error {
		return c.pollPresence(gCtx)
	})

	err = g.Wait()
	c.inflight.Wait()
	return err
}

func (c *Client) setup(ctx context.Context, sess models.SessionResponse) {
	handle := sess.Username
	c.self = handle
	transcript := chat.New(chat.Config{
		MaxRecords: c.config.MaxRecords,
		RecordCallback: func(record chat.Record) {
			c.render.Message(record.Message)
		},
	})
	c.router = NewRouter(handle, transcript)
	c.presence = NewPresence(handle)
	c.handshakes = NewHandshakes(handle)
	c.notes = NewNotifications(c.config.NotificationTTL, c.config.Scheduler, func(id uint64) {
		c.post(ctx, notificationExpired{id: id})
	})
	c.channelState = ChannelConnecting
	c.channel = NewChannel(ChannelConfig{
		URL:              c.config.ChannelURL,
		Key:              sess.ChannelKey,
		Dial:             c.config.Dial,
		DisableReconnect: c.config.DisableReconnect,
		MinBackoff:       c.config.MinBackoff,
		MaxBackoff:       c.config.MaxBackoff,
	}, handle,
		func(frame models.Frame) {
			c.post(ctx, frameReceived{frame: frame})
		},
		func(state ChannelState) {
			c.post(ctx, channelChanged{state: state})
		},
		c.log,
	)
}

func (c *Client) loop(ctx context.Context) error {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

func (c *Client) pollPresence(ctx context.Context) error {
	ticker := time.NewTicker(c.config.PresenceInterval)
	defer ticker.Stop()

	for {
		users, err := c.backend.Users(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.post(ctx, usersLoaded{users: users, err: err})

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// post hands an event to the loop. It gives up once ctx is done or the loop
// has exited.
func (c *Client) post(ctx context.Context, ev any) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

// spawn runs blocking I/O outside the loop and posts its result back.
func (c *Client) spawn(ctx context.Context, f func() any) {
	c.inflight.Go(func() {
		c.post(ctx, f())
	})
}

func (c *Client) dispatch(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case frameReceived:
		c.handleFrame(ctx, ev.frame)
	case channelChanged:
		c.channelState = ev.state
		c.render.Channel(ev.state)
	case usersLoaded:
		if ev.err != nil {
			c.log.Warn("failed to refresh presence", "error", ev.err)
			return
		}
		c.presence.Reconcile(ev.users)
		c.render.Presence(c.presence.Visible())
	case historyLoaded:
		c.handleHistory(ev)
	case notificationExpired:
		if c.notes.Expire(ev.id) {
			c.renderNotifications()
		}
	case requestDone:
		if ev.err != nil {
			c.log.Warn("chat request failed", "target", ev.target, "error", ev.err)
			c.notify(fmt.Sprintf("Failed to send chat request to %s", ev.target))
			return
		}
		c.handshakes.Sent(ev.target)
		c.notify(fmt.Sprintf("Chat request sent to %s", ev.target))
	case messageSent:
		if ev.err != nil {
			c.log.Warn("send failed", "error", ev.err)
			c.notify("Failed to send message")
		}
	case openGlobalAction:
		c.openGlobal(ctx)
	case openPrivateAction:
		if ev.peer == "" || ev.peer == c.self {
			c.notify("Cannot open a private chat with yourself")
			return
		}
		c.openThread(ctx, ev.peer, c.self, ev.peer)
	case sendAction:
		c.send(ctx, ev.content)
	case requestAction:
		c.requestChat(ctx, ev.target)
	case acceptAction:
		ev.reply <- c.accept(ctx, ev.sender)
	case declineAction:
		ev.reply <- c.decline(ev.sender)
	case dismissAction:
		ev.reply <- c.dismiss(ev.id)
	case snapshotAction:
		ev.reply <- c.snapshot()
	default:
		c.log.Error("unknown event", "event", fmt.Sprintf("%T", ev))
	}
}

func (c *Client) handleFrame(ctx context.Context, frame models.Frame) {
	switch frame.Type {
	case models.FrameTypeChat:
		m, ok := frame.Message()
		if !ok {
			c.log.Debug("malformed chat frame")
			return
		}
		c.router.Deliver(m)
	case models.FrameTypePrivate:
		m, ok := frame.Message()
		if !ok || !m.Involves(c.self) {
			c.log.Debug("dropping private frame", "ok", ok)
			return
		}
		from := m.Sender.Username
		answered := from != c.self && c.handshakes.OnPrivateMessage(from)
		if c.router.Deliver(m) {
			return
		}
		if answered {
			c.openThread(ctx, from, c.self, from)
			return
		}
		if from != c.self {
			c.unread[from]++
			c.render.Unread(maps.Clone(c.unread))
		}
	case models.FrameTypeUser:
		if frame.User == nil || frame.User.Username == "" || frame.User.Username == c.self {
			return
		}
		handle := frame.User.Username
		if c.presence.OnJoin(handle) {
			c.render.Presence(c.presence.Visible())
		}
		c.notify(fmt.Sprintf("%s joined", handle))
	case models.FrameTypeChatRequest:
		if frame.Sender == nil || frame.Sender.Username == "" || frame.Sender.Username == c.self {
			return
		}
		if frame.Receiver != nil && frame.Receiver.Username != c.self {
			return
		}
		sender := frame.Sender.Username
		if _, superseded := c.handshakes.Received(sender); superseded {
			c.log.Debug("chat request superseded", "sender", sender)
		}
		c.notes.PushRequest(sender)
		c.renderNotifications()
	default:
		c.log.Debug("ignoring frame", "type", frame.Type)
	}
}

func (c *Client) handleHistory(ev historyLoaded) {
	if ev.seq != c.router.Seq() {
		c.log.Debug("dropping stale history", "peer", ev.peer, "seq", ev.seq)
		return
	}
	if ev.err != nil {
		c.log.Warn("failed to load history", "peer", ev.peer, "error", ev.err)
		c.notify("Failed to load messages")
		c.router.Settle(ev.seq, nil)
		return
	}
	c.router.Settle(ev.seq, ev.msgs)
	c.render.Transcript(c.router.Peer(), c.router.Transcript().Messages())
}

func (c *Client) openGlobal(ctx context.Context) {
	seq := c.router.OpenGlobal()
	c.render.Transcript("", nil)
	c.spawn(ctx, func() any {
		msgs, err := c.backend.GlobalChat(ctx)
		return historyLoaded{seq: seq, msgs: msgs, err: err}
	})
}

// openThread activates the private thread with peer and fetches the pair
// history. sender and receiver only order the query.
func (c *Client) openThread(ctx context.Context, peer, sender, receiver string) {
	seq := c.router.OpenPrivate(peer)
	if _, ok := c.unread[peer]; ok {
		delete(c.unread, peer)
		c.render.Unread(maps.Clone(c.unread))
	}
	c.render.Transcript(peer, nil)
	c.spawn(ctx, func() any {
		msgs, err := c.backend.PrivateChat(ctx, sender, receiver)
		return historyLoaded{seq: seq, peer: peer, msgs: msgs, err: err}
	})
}

func (c *Client) send(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	m := c.router.Outbound(content)
	c.spawn(ctx, func() any {
		return messageSent{err: c.backend.SendMessage(ctx, m)}
	})
}

func (c *Client) requestChat(ctx context.Context, target string) {
	if target == "" || target == c.self {
		c.notify("Cannot request a chat with yourself")
		return
	}
	c.spawn(ctx, func() any {
		return requestDone{target: target, err: c.backend.RequestPrivateChat(ctx, c.self, target)}
	})
}

func (c *Client) accept(ctx context.Context, sender string) error {
	if _, err := c.handshakes.Accept(sender); err != nil {
		return err
	}
	if c.notes.DismissRequest(sender) {
		c.renderNotifications()
	}
	c.openThread(ctx, sender, sender, c.self)
	return nil
}

// decline never contacts the backend. The requester is not told.
func (c *Client) decline(sender string) error {
	if _, err := c.handshakes.Decline(sender); err != nil {
		return err
	}
	if c.notes.DismissRequest(sender) {
		c.renderNotifications()
	}
	return nil
}

// dismiss removes a notification. Dismissing a chat request declines it.
func (c *Client) dismiss(id uint64) error {
	for _, n := range c.notes.List() {
		if n.ID != id {
			continue
		}
		if n.Actionable {
			return c.decline(n.Request)
		}
		c.notes.Dismiss(id)
		c.renderNotifications()
		return nil
	}
	return ErrNotificationNotFound
}

func (c *Client) notify(text string) {
	c.notes.Push(text)
	c.renderNotifications()
}

func (c *Client) renderNotifications() {
	c.render.Notifications(c.notes.List())
}

func (c *Client) snapshot() Snapshot {
	return Snapshot{
		Handle:        c.self,
		ActivePeer:    c.router.Peer(),
		Transcript:    c.router.Transcript().Messages(),
		Visible:       c.presence.Visible(),
		Notifications: c.notes.List(),
		Pending:       c.handshakes.Pending(),
		Channel:       c.channelState,
		Unread:        maps.Clone(c.unread),
	}
}

func (c *Client) enqueue(ctx context.Context, ev any) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClientStopped
	}
}

func awaitReply[T any](ctx context.Context, c *Client, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.done:
		return zero, ErrClientStopped
	}
}

func (c *Client) OpenGlobal(ctx context.Context) error {
	return c.enqueue(ctx, openGlobalAction{})
}

func (c *Client) OpenPrivate(ctx context.Context, peer string) error {
	return c.enqueue(ctx, openPrivateAction{peer: peer})
}

// Send posts content to the active thread. Delivery failures show up as a
// notification.
func (c *Client) Send(ctx context.Context, content string) error {
	return c.enqueue(ctx, sendAction{content: content})
}

func (c *Client) RequestChat(ctx context.Context, target string) error {
	return c.enqueue(ctx, requestAction{target: target})
}

func (c *Client) Accept(ctx context.Context, sender string) error {
	reply := make(chan error, 1)
	if err := c.enqueue(ctx, acceptAction{sender: sender, reply: reply}); err != nil {
		return err
	}
	res, err := awaitReply(ctx, c, reply)
	if err != nil {
		return err
	}
	return res
}

func (c *Client) Decline(ctx context.Context, sender string) error {
	reply := make(chan error, 1)
	if err := c.enqueue(ctx, declineAction{sender: sender, reply: reply}); err != nil {
		return err
	}
	res, err := awaitReply(ctx, c, reply)
	if err != nil {
		return err
	}
	return res
}

func (c *Client) Dismiss(ctx context.Context, id uint64) error {
	reply := make(chan error, 1)
	if err := c.enqueue(ctx, dismissAction{id: id, reply: reply}); err != nil {
		return err
	}
	res, err := awaitReply(ctx, c, reply)
	if err != nil {
		return err
	}
	return res
}

func (c *Client) State(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.enqueue(ctx, snapshotAction{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	return awaitReply(ctx, c, reply)
}

// Logout ends the session on the relay.
func (c *Client) Logout(ctx context.Context) error {
	return c.backend.Logout(ctx)
}
