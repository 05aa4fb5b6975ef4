package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/mindatlas/internal/storage"
)

func mustCurrent(t *testing.T, s *Store) (string, bool) {
	t.Helper()
	tok, ok, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	return tok, ok
}

func TestPersistCurrentClear(t *testing.T) {
	for name, s := range map[string]*Store{
		"direct": NewStore(storage.NewMemory()),
		"memo":   NewStore(storage.NewMemory(), WithMemo()),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, ok := mustCurrent(t, s); ok {
				t.Fatal("fresh store has a session")
			}

			if err := s.Persist(ctx, "tok-1"); err != nil {
				t.Fatal(err)
			}
			if got, ok := mustCurrent(t, s); !ok || got != "tok-1" {
				t.Fatalf("Current = %q, %v", got, ok)
			}

			if err := s.Persist(ctx, "tok-2"); err != nil {
				t.Fatal(err)
			}
			if got, _ := mustCurrent(t, s); got != "tok-2" {
				t.Errorf("new login should replace old token, got %q", got)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatal(err)
			}
			if _, ok := mustCurrent(t, s); ok {
				t.Error("session survived Clear")
			}
		})
	}
}

func TestPersistWritesThrough(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := NewStore(kv)
	if err := s.Persist(ctx, "tok"); err != nil {
		t.Fatal(err)
	}

	if v, ok, _ := kv.Get(ctx, Key); !ok || v != "tok" {
		t.Fatalf("stored = %q, %v", v, ok)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, Key); ok {
		t.Error("key still present after Clear")
	}
}

func TestSharedSQLiteSlot(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "mindatlas.db")
	open := func() *Store {
		kv, err := storage.OpenSQLite(dsn)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { kv.Close() })
		return NewStore(kv)
	}
	server, cli := open(), open()

	if err := server.Persist(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	if got, ok := mustCurrent(t, cli); !ok || got != "tok" {
		t.Fatalf("second process sees %q, %v", got, ok)
	}

	if err := cli.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got, ok := mustCurrent(t, server); ok {
		t.Errorf("server still reports session %q after logout elsewhere", got)
	}
}

func TestMemoServedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := NewStore(kv, WithMemo())

	if _, ok := mustCurrent(t, s); ok {
		t.Fatal("fresh store has a session")
	}

	if err := kv.Set(ctx, Key, "external"); err != nil {
		t.Fatal(err)
	}
	if _, ok := mustCurrent(t, s); ok {
		t.Error("cached snapshot should be served until invalidated")
	}

	s.Invalidate()
	if got, ok := mustCurrent(t, s); !ok || got != "external" {
		t.Errorf("after Invalidate = %q, %v", got, ok)
	}
}

func TestEmptyValueIsNoSession(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	if err := kv.Set(ctx, Key, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := mustCurrent(t, NewStore(kv)); ok {
		t.Error("empty value reported as a session")
	}
}

type failingKV struct{ storage.Provider }

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestReadErrorPropagates(t *testing.T) {
	s := NewStore(failingKV{storage.NewMemory()})
	if _, _, err := s.Current(context.Background()); err == nil {
		t.Error("expected read error")
	}
}
