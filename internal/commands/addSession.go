package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/api"
	"github.com/ejamakovic/chat-app-FE/internal/config"
	"github.com/ejamakovic/chat-app-FE/internal/rest"
)

// AddSession asks the running relay's admin listener for a token bound to
// username and prints it.
func AddSession(ctx context.Context, username string, cfg *config.Config, out io.Writer) error {
	client := rest.New("http://"+cfg.AdminAddr, &http.Client{Timeout: 10 * time.Second})

	var result api.AddSessionResponse
	err := client.PostJSON(ctx, "/admin/sessions", api.AddSessionRequest{Username: username}, &result)
	if err != nil {
		return fmt.Errorf("failed to call admin API: %w. Is the relay running?", err)
	}
	if !result.Success {
		return fmt.Errorf("failed to add session: %s", result.Message)
	}

	_, _ = fmt.Fprintf(out, "\nSession Created Successfully!\n")
	_, _ = fmt.Fprintf(out, "Username:          %s\n", result.Username)
	_, _ = fmt.Fprintf(out, "Token:             %s\n\n", result.Token)
	_, _ = fmt.Fprintf(out, "Set the %q cookie (or the token header) to this value to join as %s.\n", cfg.SessionCookie, result.Username)
	return nil
}
