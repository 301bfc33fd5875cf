//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/client"

	"github.com/stretchr/testify/require"
)

type TestServer struct {
	RelayAddr   string
	AdminAddr   string
	BackendAddr string
	DBPath      string
	Policy      string
	Backend     *exec.Cmd
	Relay       *exec.Cmd
}

func getFreePort(t *testing.T) int {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	require.NoError(t, err)

	l, err := net.ListenTCP("tcp", addr)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

func waitForPort(t *testing.T, addr string) {
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return true
		}
		return false
	}, 5*time.Second, 200*time.Millisecond, "Server failed to start at %s", addr)
}

func (s *TestServer) env() []string {
	return append(os.Environ(),
		fmt.Sprintf("RELAY_ADDR=%s", s.RelayAddr),
		fmt.Sprintf("ADMIN_ADDR=%s", s.AdminAddr),
		fmt.Sprintf("BACKEND_ADDR=%s", s.BackendAddr),
		fmt.Sprintf("BACKEND_URL=http://%s", s.BackendAddr),
		fmt.Sprintf("CHAT_DB=%s", s.DBPath),
		fmt.Sprintf("SESSION_POLICY=%s", s.Policy),
		"LOG_LEVEL=warn",
		"CHANNEL_SECRET=e2e-secret",
	)
}

func startServer(t *testing.T, policy string) *TestServer {
	s := &TestServer{
		RelayAddr:   fmt.Sprintf("localhost:%d", getFreePort(t)),
		AdminAddr:   fmt.Sprintf("localhost:%d", getFreePort(t)),
		BackendAddr: fmt.Sprintf("localhost:%d", getFreePort(t)),
		DBPath:      filepath.Join(t.TempDir(), "chat-e2e.db"),
		Policy:      policy,
	}

	s.Backend = exec.Command(backendBinPath)
	s.Backend.Env = s.env()
	require.NoError(t, s.Backend.Start())
	waitForPort(t, s.BackendAddr)

	s.Relay = exec.Command(relayBinPath)
	s.Relay.Env = s.env()
	require.NoError(t, s.Relay.Start())
	waitForPort(t, s.RelayAddr)

	t.Cleanup(s.Stop)
	return s
}

func (s *TestServer) Stop() {
	for _, cmd := range []*exec.Cmd{s.Relay, s.Backend} {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
	}
}

func (s *TestServer) RelayURL() string {
	return "http://" + s.RelayAddr
}

func (s *TestServer) ChannelURL() string {
	return fmt.Sprintf("ws://%s/ws/chat", s.BackendAddr)
}

// CreateSession provisions a handle through the relay CLI and returns the
// printed token.
func (s *TestServer) CreateSession(t *testing.T, username string) string {
	cmd := exec.Command(relayBinPath, "-add-session", username)
	cmd.Env = s.env()

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "Failed to create session via CLI: %s", string(output))

	re := regexp.MustCompile(`Token:\s+(\S+)`)
	matches := re.FindStringSubmatch(string(output))
	require.Len(t, matches, 2, "Could not find token in output: %s", string(output))

	return matches[1]
}

type participant struct {
	*client.Client
	handle string
}

func connect(t *testing.T, s *TestServer) *participant {
	backend, err := client.NewHTTPBackend(s.RelayURL(), 5*time.Second)
	require.NoError(t, err)

	c := client.New(client.Config{ChannelURL: s.ChannelURL()}, backend, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	p := &participant{Client: c}
	require.Eventually(t, func() bool {
		snap := p.snapshot(t)
		p.handle = snap.Handle
		return snap.Handle != "" && snap.Channel == client.ChannelOpen
	}, 5*time.Second, 50*time.Millisecond, "participant did not connect")
	return p
}

func (p *participant) snapshot(t *testing.T) client.Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := p.State(ctx)
	require.NoError(t, err)
	return snap
}
