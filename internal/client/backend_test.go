package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/models"
	"github.com/ejamakovic/chat-app-FE/internal/rest"

	"github.com/stretchr/testify/require"
)

func TestHTTPBackend(t *testing.T) {
	req := require.New(t)

	var sent map[string]any
	var privateQuery string
	var loggedOut bool

	requireCookie := func(w http.ResponseWriter, r *http.Request) bool {
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Not authenticated"})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /session", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "token-1", Path: "/"})
		_ = json.NewEncoder(w).Encode(models.SessionResponse{Username: "USER_1", ChannelKey: "key-1"})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.User{{Username: "USER_1", Connected: true}})
	})
	mux.HandleFunc("GET /globalChat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Failed to fetch global chat"})
	})
	mux.HandleFunc("GET /privateChat", func(w http.ResponseWriter, r *http.Request) {
		if !requireCookie(w, r) {
			return
		}
		privateQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]models.Message{})
	})
	mux.HandleFunc("POST /sendMessage", func(w http.ResponseWriter, r *http.Request) {
		if !requireCookie(w, r) {
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /privateChatRequest", func(w http.ResponseWriter, r *http.Request) {
		if !requireCookie(w, r) {
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /logoutUser", func(w http.ResponseWriter, r *http.Request) {
		if !requireCookie(w, r) {
			return
		}
		loggedOut = true
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b, err := NewHTTPBackend(srv.URL, 5*time.Second)
	req.NoError(err)
	ctx := context.Background()

	// Before the session is resolved there is no cookie.
	err = b.Logout(ctx)
	req.True(rest.IsStatus(err, http.StatusUnauthorized))

	sess, err := b.Session(ctx)
	req.NoError(err)
	req.Equal(models.SessionResponse{Username: "USER_1", ChannelKey: "key-1"}, sess)

	users, err := b.Users(ctx)
	req.NoError(err)
	req.Len(users, 1)

	_, err = b.GlobalChat(ctx)
	req.Error(err)
	req.True(rest.IsStatus(err, http.StatusInternalServerError))
	req.Contains(err.Error(), "Failed to fetch global chat")

	_, err = b.PrivateChat(ctx, "U1", "USER_1")
	req.NoError(err)
	req.Equal("receiver=USER_1&sender=U1", privateQuery)

	req.NoError(b.SendMessage(ctx, models.Message{Sender: models.UserRef{Username: "USER_1"}, Content: "hi"}))
	req.Equal("hi", sent["content"])
	req.Contains(sent, "receiver")
	req.Nil(sent["receiver"])

	req.NoError(b.RequestPrivateChat(ctx, "USER_1", "U2"))
	req.NoError(b.Logout(ctx))
	req.True(loggedOut)
}

func TestHTTPBackend_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b, err := NewHTTPBackend(url, time.Second)
	require.NoError(t, err)
	_, err = b.Session(context.Background())
	require.ErrorIs(t, err, rest.ErrUnavailable)
}
