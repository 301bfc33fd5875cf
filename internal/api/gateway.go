//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks
package api

import (
	"context"

	"github.com/ejamakovic/chat-app-FE/internal/models"
)

// Gateway is the relay's view of the storage backend.
type Gateway interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GlobalChat(ctx context.Context) ([]models.Message, error)
	PrivateChat(ctx context.Context, sender, receiver string) ([]models.Message, error)
	SendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	RequestPrivateChat(ctx context.Context, req models.ChatRequestBody) error
	RegisterUser(ctx context.Context, username string) error
	DisconnectUser(ctx context.Context, username string) error
}
