// Package session holds the single-slot session: at most one bearer token,
// persisted under a fixed storage key.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/mindatlas/internal/storage"
)

// Key is the storage key the current token lives under.
const Key = "accessToken"

// Store is the session slot. By default every read goes to storage; with
// WithMemo reads are served from a snapshot that is dropped on Persist,
// Clear and Invalidate.
type Store struct {
	kv   storage.Provider
	memo bool

	mu     sync.Mutex
	loaded bool
	token  string
	ok     bool
}

// Option configures a Store.
type Option func(*Store)

// WithMemo caches the slot between reads. Only safe when something calls
// Invalidate on external writes (see storage.Watch).
func WithMemo() Option {
	return func(s *Store) { s.memo = true }
}

// NewStore creates a session store over kv.
func NewStore(kv storage.Provider, opts ...Option) *Store {
	s := &Store{kv: kv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Memoized reports whether reads are cached.
func (s *Store) Memoized() bool {
	return s.memo
}

func (s *Store) remember(token string, ok bool) {
	s.token, s.ok, s.loaded = token, ok, s.memo
}

// Persist writes token through to storage, replacing any previous session.
func (s *Store) Persist(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, Key, token); err != nil {
		s.loaded = false
		return fmt.Errorf("session: persist: %w", err)
	}
	s.remember(token, token != "")
	return nil
}

// Current returns the stored token, if any.
func (s *Store) Current(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.token, s.ok, nil
	}
	token, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return "", false, fmt.Errorf("session: read: %w", err)
	}
	ok = ok && token != ""
	s.remember(token, ok)
	return token, ok, nil
}

// Clear removes the session.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, Key); err != nil {
		s.loaded = false
		return fmt.Errorf("session: clear: %w", err)
	}
	s.remember("", false)
	return nil
}

// Invalidate drops the cached snapshot so the next read hits storage.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}
