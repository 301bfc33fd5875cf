package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeDirectory struct {
	mu         sync.Mutex
	registered []string
	err        error
}

func (d *fakeDirectory) RegisterUser(ctx context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.registered = append(d.registered, username)
	return nil
}

func (d *fakeDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.registered)
}

func TestSessionService(t *testing.T) {
	const t0Millis = 1700000000000

	createService := func(t *testing.T, policy Policy) (*Service, *fakeDirectory) {
		dir := &fakeDirectory{}
		svc, err := NewService(Config{Policy: policy}, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
		// Frozen clock makes every mint collide on the same millisecond.
		svc.now = func() time.Time {
			return time.UnixMilli(t0Millis)
		}
		return svc, dir
	}

	t.Run("Mint", func(t *testing.T) {
		svc, dir := createService(t, PolicyMint)

		sess, err := svc.EnsureHandle(context.Background(), "token1")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		if sess.Handle != "USER_1700000000000" {
			t.Errorf("Expected handle USER_1700000000000, got %s", sess.Handle)
		}
		if sess.Token != "token1" {
			t.Errorf("Expected token token1, got %s", sess.Token)
		}
		if dir.count() != 1 {
			t.Errorf("Expected 1 registration, got %d", dir.count())
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		svc, dir := createService(t, PolicyMint)

		first, err := svc.EnsureHandle(context.Background(), "token1")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		second, err := svc.EnsureHandle(context.Background(), "token1")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		if first != second {
			t.Errorf("Expected same session, got %+v and %+v", first, second)
		}
		if dir.count() != 1 {
			t.Errorf("Expected directory registration once, got %d", dir.count())
		}
	})

	t.Run("CollisionBumpsMillis", func(t *testing.T) {
		svc, _ := createService(t, PolicyMint)

		a, err := svc.EnsureHandle(context.Background(), "a")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		b, err := svc.EnsureHandle(context.Background(), "b")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		if a.Handle == b.Handle {
			t.Fatalf("Expected distinct handles, both got %s", a.Handle)
		}
		if b.Handle != "USER_1700000000001" {
			t.Errorf("Expected USER_1700000000001, got %s", b.Handle)
		}
	})

	t.Run("EmptyTokenMintsToken", func(t *testing.T) {
		svc, _ := createService(t, PolicyMint)

		sess, err := svc.EnsureHandle(context.Background(), "")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		if sess.Token == "" {
			t.Error("Expected a generated token")
		}
		got, err := svc.Lookup(sess.Token)
		if err != nil || got.Handle != sess.Handle {
			t.Errorf("Generated token not bound: %v", err)
		}
	})

	t.Run("RequirePolicy", func(t *testing.T) {
		svc, dir := createService(t, PolicyRequire)

		if _, err := svc.EnsureHandle(context.Background(), "unknown"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := svc.EnsureHandle(context.Background(), ""); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated for empty token, got %v", err)
		}

		if err := svc.Bind("provisioned", "alice"); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
		sess, err := svc.EnsureHandle(context.Background(), "provisioned")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		if sess.Handle != "alice" {
			t.Errorf("Expected alice, got %s", sess.Handle)
		}
		if dir.count() != 0 {
			t.Error("Provisioned bindings should not be registered on lookup")
		}
	})

	t.Run("DirectoryFailureRollsBack", func(t *testing.T) {
		svc, dir := createService(t, PolicyMint)
		dir.err = errors.New("backend down")

		if _, err := svc.EnsureHandle(context.Background(), "token1"); err == nil {
			t.Fatal("Expected error when directory is down")
		}
		if _, err := svc.Lookup("token1"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected binding rollback, got %v", err)
		}

		dir.err = nil
		sess, err := svc.EnsureHandle(context.Background(), "token1")
		if err != nil {
			t.Fatalf("Retry failed: %v", err)
		}
		if sess.Handle != "USER_1700000000000" {
			t.Errorf("Expected released handle to be reusable, got %s", sess.Handle)
		}
	})

	t.Run("Bind", func(t *testing.T) {
		svc, _ := createService(t, PolicyRequire)

		if err := svc.Bind("t1", "alice"); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
		if err := svc.Bind("t1", "alice"); err != nil {
			t.Errorf("Rebinding same pair should succeed, got %v", err)
		}
		if err := svc.Bind("t1", "bob"); !errors.Is(err, ErrTokenBound) {
			t.Errorf("Expected ErrTokenBound, got %v", err)
		}
		if err := svc.Bind("t2", "alice"); !errors.Is(err, ErrHandleTaken) {
			t.Errorf("Expected ErrHandleTaken, got %v", err)
		}
	})

	t.Run("Release", func(t *testing.T) {
		svc, _ := createService(t, PolicyMint)

		sess, err := svc.EnsureHandle(context.Background(), "token1")
		if err != nil {
			t.Fatalf("EnsureHandle failed: %v", err)
		}
		handle, err := svc.Release("token1")
		if err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if handle != sess.Handle {
			t.Errorf("Expected released handle %s, got %s", sess.Handle, handle)
		}
		if _, err := svc.Lookup("token1"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected released token to be unknown, got %v", err)
		}
		if _, err := svc.Release("token1"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Expected second release to fail, got %v", err)
		}
	})

	t.Run("ConcurrentSameToken", func(t *testing.T) {
		svc, dir := createService(t, PolicyMint)

		var wg sync.WaitGroup
		handles := make([]string, 10)
		for i := range handles {
			wg.Go(func() {
				sess, err := svc.EnsureHandle(context.Background(), "shared")
				if err != nil {
					t.Errorf("EnsureHandle failed: %v", err)
					return
				}
				handles[i] = sess.Handle
			})
		}
		wg.Wait()

		for _, h := range handles {
			if h != handles[0] {
				t.Fatalf("Expected one handle per token, got %v", handles)
			}
		}
		if dir.count() != 1 {
			t.Errorf("Expected a single registration, got %d", dir.count())
		}
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		if _, err := NewService(Config{Policy: "open"}, nil, slog.Default()); err == nil {
			t.Error("Expected error for unknown policy")
		}
	})
}
