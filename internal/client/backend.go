package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/models"
	"github.com/ejamakovic/chat-app-FE/internal/rest"
)

// Backend is the relay API as seen by a participant.
type Backend interface {
	Session(ctx context.Context) (models.SessionResponse, error)
	Users(ctx context.Context) ([]models.User, error)
	GlobalChat(ctx context.Context) ([]models.Message, error)
	PrivateChat(ctx context.Context, sender, receiver string) ([]models.Message, error)
	SendMessage(ctx context.Context, msg models.Message) error
	RequestPrivateChat(ctx context.Context, sender, receiver string) error
	Logout(ctx context.Context) error
}

// HTTPBackend talks to the relay. The session cookie is kept in a cookie
// jar, so every call after Session runs under the same identity.
type HTTPBackend struct {
	rest *rest.Client
}

func NewHTTPBackend(relayURL string, timeout time.Duration) (*HTTPBackend, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &HTTPBackend{
		rest: rest.New(relayURL, &http.Client{Jar: jar, Timeout: timeout}),
	}, nil
}

func (b *HTTPBackend) Session(ctx context.Context) (models.SessionResponse, error) {
	var resp models.SessionResponse
	if err := b.rest.GetJSON(ctx, "/session", nil, &resp); err != nil {
		return models.SessionResponse{}, fmt.Errorf("failed to resolve session: %w", err)
	}
	if resp.Username == "" {
		return models.SessionResponse{}, fmt.Errorf("relay returned an empty handle")
	}
	return resp, nil
}

func (b *HTTPBackend) Users(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := b.rest.GetJSON(ctx, "/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (b *HTTPBackend) GlobalChat(ctx context.Context) ([]models.Message, error) {
	msgs := []models.Message{}
	if err := b.rest.GetJSON(ctx, "/globalChat", nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to fetch global chat: %w", err)
	}
	return msgs, nil
}

func (b *HTTPBackend) PrivateChat(ctx context.Context, sender, receiver string) ([]models.Message, error) {
	q := url.Values{}
	q.Set("sender", sender)
	q.Set("receiver", receiver)

	msgs := []models.Message{}
	if err := b.rest.GetJSON(ctx, "/privateChat", q, &msgs); err != nil {
		return nil, fmt.Errorf("failed to fetch private chat: %w", err)
	}
	return msgs, nil
}

func (b *HTTPBackend) SendMessage(ctx context.Context, msg models.Message) error {
	req := models.SendMessageRequest{
		Sender:   msg.Sender,
		Receiver: msg.Receiver,
		Content:  msg.Content,
	}
	if err := b.rest.PostJSON(ctx, "/sendMessage", req, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *HTTPBackend) RequestPrivateChat(ctx context.Context, sender, receiver string) error {
	req := models.ChatRequestBody{
		Sender:   models.UserRef{Username: sender},
		Receiver: models.UserRef{Username: receiver},
	}
	if err := b.rest.PostJSON(ctx, "/privateChatRequest", req, nil); err != nil {
		return fmt.Errorf("failed to request private chat: %w", err)
	}
	return nil
}

func (b *HTTPBackend) Logout(ctx context.Context) error {
	if err := b.rest.PostJSON(ctx, "/logoutUser", nil, nil); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}
