package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatchReportsExternalWrites(t *testing.T) {
	s := tempFS(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]string{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, s, logger, func(kind, key string) {
			mu.Lock()
			seen[key] = kind
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// Another process writing the token file directly.
	if err := os.WriteFile(filepath.Join(s.Root(), "accessToken"), []byte("x.y.z"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["accessToken"] == ChangeWritten
	}, "write not reported")

	if err := os.Remove(filepath.Join(s.Root(), "accessToken")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["accessToken"] == ChangeRemoved
	}, "removal not reported")

	mu.Lock()
	for k := range seen {
		if filepath.Base(k) != k || k[0] == '.' {
			t.Errorf("unexpected key reported: %q", k)
		}
	}
	mu.Unlock()

	cancel()
	<-done
}
