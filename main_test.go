package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/api"
	"github.com/ejamakovic/chat-app-FE/internal/client"
	apphttp "github.com/ejamakovic/chat-app-FE/internal/http"
	"github.com/ejamakovic/chat-app-FE/internal/models"
	"github.com/ejamakovic/chat-app-FE/internal/storage"
	"github.com/ejamakovic/chat-app-FE/internal/ws"

	"github.com/stretchr/testify/require"
)

const channelSecret = "integration-secret"

type stack struct {
	relayURL   string
	adminURL   string
	channelURL string
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// startStack runs the backend on an httptest server and the relay through
// run, the same way the binaries do.
func startStack(t *testing.T) stack {
	t.Helper()

	db, err := storage.NewBboltStorage(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hub := ws.NewHub(db, testLogger())
	backend := httptest.NewServer(apphttp.NewBackendServer(db, hub, "", channelSecret, testLogger()).Handler())
	t.Cleanup(backend.Close)

	relayAddr := freeAddr(t)
	adminAddr := freeAddr(t)

	t.Chdir(t.TempDir())
	t.Setenv("RELAY_ADDR", relayAddr)
	t.Setenv("ADMIN_ADDR", adminAddr)
	t.Setenv("BACKEND_URL", backend.URL)
	t.Setenv("SESSION_POLICY", "mint")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CHANNEL_SECRET", channelSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, nil)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil && err != context.Canceled {
				t.Errorf("Server error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("relay did not shut down")
		}
	})

	waitForServer(t, fmt.Sprintf("http://%s/users", relayAddr), 50)

	return stack{
		relayURL:   "http://" + relayAddr,
		adminURL:   "http://" + adminAddr,
		channelURL: "ws" + strings.TrimPrefix(backend.URL, "http") + "/ws/chat",
	}
}

type participant struct {
	*client.Client
	api    *client.HTTPBackend
	handle string
}

func (p *participant) state(t *testing.T) client.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := p.State(ctx)
	require.NoError(t, err)
	return s
}

func (p *participant) eventually(t *testing.T, cond func(client.Snapshot) bool, msg string) client.Snapshot {
	t.Helper()
	var last client.Snapshot
	require.Eventually(t, func() bool {
		last = p.state(t)
		return cond(last)
	}, 5*time.Second, 20*time.Millisecond, msg)
	return last
}

func join(t *testing.T, s stack) *participant {
	t.Helper()

	backend, err := client.NewHTTPBackend(s.relayURL, 5*time.Second)
	require.NoError(t, err)
	c := client.New(client.Config{
		ChannelURL:       s.channelURL,
		DisableReconnect: true,
	}, backend, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("client did not stop")
		}
	})

	p := &participant{Client: c, api: backend}
	snap := p.eventually(t, func(s client.Snapshot) bool {
		return s.Handle != "" && s.Channel == client.ChannelOpen
	}, "participant did not connect")
	p.handle = snap.Handle
	return p
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// waitConnected polls the relay until every handle is reported connected.
func waitConnected(t *testing.T, s stack, handles ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		var users []models.User
		getJSON(t, s.relayURL+"/users", &users)
		for _, h := range handles {
			if !slices.Contains(users, models.User{Username: h, Connected: true}) {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond, "participants not connected")
}

func hasRequestFrom(s client.Snapshot, sender string) bool {
	return slices.ContainsFunc(s.Notifications, func(n client.Notification) bool {
		return n.Actionable && n.Request == sender
	})
}

func TestIntegration(t *testing.T) {
	s := startStack(t)

	u1 := join(t, s)
	u2 := join(t, s)
	u3 := join(t, s)
	require.True(t, strings.HasPrefix(u1.handle, "USER_"))
	require.NotEqual(t, u1.handle, u2.handle)
	waitConnected(t, s, u1.handle, u2.handle, u3.handle)

	t.Run("global message", func(t *testing.T) {
		require.NoError(t, u1.Send(context.Background(), "hi"))

		var raw []map[string]any
		require.Eventually(t, func() bool {
			getJSON(t, s.relayURL+"/globalChat", &raw)
			return len(raw) > 0 && raw[len(raw)-1]["content"] == "hi"
		}, 5*time.Second, 20*time.Millisecond)

		last := raw[len(raw)-1]
		require.Equal(t, map[string]any{"username": u1.handle}, last["sender"])
		require.Contains(t, last, "receiver")
		require.Nil(t, last["receiver"])

		u2.eventually(t, func(snap client.Snapshot) bool {
			return slices.ContainsFunc(snap.Transcript, func(m models.Message) bool {
				return m.Content == "hi" && m.Sender.Username == u1.handle
			})
		}, "global push not received")
	})

	t.Run("request and accept", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, u1.RequestChat(ctx, u2.handle))

		u2.eventually(t, func(snap client.Snapshot) bool {
			return hasRequestFrom(snap, u1.handle)
		}, "chat request not delivered")

		require.NoError(t, u2.Accept(ctx, u1.handle))
		snap := u2.state(t)
		require.Equal(t, u1.handle, snap.ActivePeer)
		require.False(t, hasRequestFrom(snap, u1.handle))

		// The initiator waits for the first answer before opening the thread.
		require.Empty(t, u1.state(t).ActivePeer)

		require.NoError(t, u2.Send(ctx, "hello"))
		u1.eventually(t, func(snap client.Snapshot) bool {
			return snap.ActivePeer == u2.handle && slices.ContainsFunc(snap.Transcript, func(m models.Message) bool {
				return m.Content == "hello"
			})
		}, "initiator did not open the thread")

		history, err := u2.api.PrivateChat(ctx, u1.handle, u2.handle)
		require.NoError(t, err)
		require.NotEmpty(t, history)
		require.Equal(t, "hello", history[len(history)-1].Content)

		// The third participant never sees the private thread.
		for _, m := range u3.state(t).Transcript {
			require.NotEqual(t, "hello", m.Content)
		}
	})

	t.Run("request and decline", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, u3.RequestChat(ctx, u2.handle))

		u2.eventually(t, func(snap client.Snapshot) bool {
			return hasRequestFrom(snap, u3.handle)
		}, "chat request not delivered")
		before := u3.state(t)

		require.NoError(t, u2.Decline(ctx, u3.handle))
		snap := u2.state(t)
		require.False(t, hasRequestFrom(snap, u3.handle))
		require.Equal(t, u1.handle, snap.ActivePeer)

		// Silence is the decline signal.
		require.Never(t, func() bool {
			after := u3.state(t)
			return after.ActivePeer != "" || len(after.Transcript) != len(before.Transcript) ||
				slices.ContainsFunc(after.Notifications, func(n client.Notification) bool {
					return n.Actionable || strings.Contains(n.Text, u2.handle) && !strings.HasPrefix(n.Text, "Chat request sent")
				})
		}, 300*time.Millisecond, 20*time.Millisecond)
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, u3.Logout(context.Background()))

		var users []models.User
		getJSON(t, s.relayURL+"/users", &users)
		require.Contains(t, users, models.User{Username: u3.handle, Connected: false})
	})
}

func TestIntegration_AdminSession(t *testing.T) {
	s := startStack(t)

	body, _ := json.Marshal(api.AddSessionRequest{Username: "alice"})
	resp, err := http.Post(s.adminURL+"/admin/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var added api.AddSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	require.True(t, added.Success)
	require.NotEmpty(t, added.Token)

	req, err := http.NewRequest(http.MethodGet, s.relayURL+"/session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "sid", Value: added.Token})
	sessResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = sessResp.Body.Close() }()
	require.Equal(t, http.StatusOK, sessResp.StatusCode)

	var sess models.SessionResponse
	require.NoError(t, json.NewDecoder(sessResp.Body).Decode(&sess))
	require.Equal(t, "alice", sess.Username)
}

func waitForServer(t *testing.T, urlStr string, retries int) {
	httpClient := &http.Client{Timeout: 500 * time.Millisecond}

	for i := 0; i < retries; i++ {
		resp, err := httpClient.Get(urlStr)
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server failed to start at %s after %d retries", urlStr, retries)
}
