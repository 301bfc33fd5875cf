package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/models"
	"github.com/ejamakovic/chat-app-FE/internal/rest"
)

// Backend API paths.
const (
	PathUsers          = "/users"
	PathUsersLogout    = "/users/logout"
	PathMessages       = "/messages"
	PathPrivateHistory = "/messages/private"
	PathChatRequest    = "/chatRequest"
	PathChannel        = "/ws/chat"
)

// Client forwards relay calls to the storage backend.
type Client struct {
	rest *rest.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		rest: rest.New(baseURL, &http.Client{Timeout: timeout}),
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := c.rest.GetJSON(ctx, PathUsers, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (c *Client) GlobalChat(ctx context.Context) ([]models.Message, error) {
	msgs := []models.Message{}
	if err := c.rest.GetJSON(ctx, PathMessages, nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to fetch global chat: %w", err)
	}
	return msgs, nil
}

func (c *Client) PrivateChat(ctx context.Context, sender, receiver string) ([]models.Message, error) {
	q := url.Values{}
	q.Set("sender", sender)
	q.Set("receiver", receiver)

	msgs := []models.Message{}
	if err := c.rest.GetJSON(ctx, PathPrivateHistory, q, &msgs); err != nil {
		return nil, fmt.Errorf("failed to fetch private chat %s/%s: %w", sender, receiver, err)
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	if err := c.rest.PostJSON(ctx, PathMessages, msg, &stored); err != nil {
		return models.Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return stored, nil
}

func (c *Client) RequestPrivateChat(ctx context.Context, req models.ChatRequestBody) error {
	if err := c.rest.PostJSON(ctx, PathChatRequest, req, nil); err != nil {
		return fmt.Errorf("failed to send chat request: %w", err)
	}
	return nil
}

// RegisterUser adds a freshly minted handle to the user directory.
func (c *Client) RegisterUser(ctx context.Context, username string) error {
	if err := c.rest.PostJSON(ctx, PathUsers, models.UserRef{Username: username}, nil); err != nil {
		return fmt.Errorf("failed to register user %s: %w", username, err)
	}
	return nil
}

func (c *Client) DisconnectUser(ctx context.Context, username string) error {
	if err := c.rest.PostJSON(ctx, PathUsersLogout, models.UserRef{Username: username}, nil); err != nil {
		return fmt.Errorf("failed to disconnect user %s: %w", username, err)
	}
	return nil
}
