// Package testutil provides shared helpers for minting tokens and wiring
// session components over throwaway storage.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/session"
	"github.com/starford/mindatlas/internal/storage"
	"github.com/starford/mindatlas/internal/token"
)

// Secret signs every token minted by this package.
const Secret = "testutil-secret"

// Token mints a backend-shaped token for email with the given roles.
// A negative ttl yields an already expired token.
func Token(t *testing.T, email string, ttl time.Duration, roles ...string) string {
	t.Helper()
	raw, err := token.Sign([]byte(Secret), token.Issue{
		Subject: email,
		Roles:   roles,
		TTL:     ttl,
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// TokenWithID mints a token that embeds a numeric user id.
func TokenWithID(t *testing.T, email string, id int64, ttl time.Duration, roles ...string) string {
	t.Helper()
	raw, err := token.Sign([]byte(Secret), token.Issue{
		Subject: email,
		UserID:  &id,
		Roles:   roles,
		TTL:     ttl,
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// Auth bundles a session store and gate over in-memory storage.
type Auth struct {
	KV       *storage.Memory
	Sessions *session.Store
	Gate     *authgate.Gate
}

// NewAuth wires an unverifying gate whose login path is /login.
func NewAuth(t *testing.T) *Auth {
	t.Helper()
	kv := storage.NewMemory()
	sessions := session.NewStore(kv)
	return &Auth{
		KV:       kv,
		Sessions: sessions,
		Gate:     authgate.New(sessions, token.NewCodec(""), "/login"),
	}
}

// SignIn stores raw as the current session.
func (a *Auth) SignIn(t *testing.T, raw string) {
	t.Helper()
	if err := a.Sessions.Persist(context.Background(), raw); err != nil {
		t.Fatalf("persist session: %v", err)
	}
}
