// Package authgate derives the current identity from the session slot.
package authgate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/mindatlas/internal/rbac"
	"github.com/starford/mindatlas/internal/session"
	"github.com/starford/mindatlas/internal/token"
)

// Identity is the derived view of the session.
type Identity struct {
	Authenticated bool      `json:"is_authenticated"`
	Role          rbac.Role `json:"role"`
	Email         string    `json:"email,omitempty"`
	UserID        *int64    `json:"user_id,omitempty"`
	Loading       bool      `json:"is_loading"`
}

// IsAdmin reports whether the identity is an authenticated administrator.
func (id Identity) IsAdmin() bool {
	return id.Authenticated && id.Role.IsAdmin()
}

// Pending is the identity before the session has been resolved.
func Pending() Identity {
	return Identity{Loading: true}
}

// Gate resolves identities and performs logout.
type Gate struct {
	sessions  *session.Store
	codec     *token.Codec
	loginPath string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLogger sets the logger used for purge notices.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New creates a Gate. loginPath is where Logout sends the client.
func New(sessions *session.Store, codec *token.Codec, loginPath string, opts ...Option) *Gate {
	g := &Gate{
		sessions:  sessions,
		codec:     codec,
		loginPath: loginPath,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot resolves the current identity. Absent and expired sessions are
// normalized to an unauthenticated identity with a nil error. An undecodable
// token is purged too, but the decode error is returned so the caller can
// treat it as a forced logout.
func (g *Gate) Snapshot(ctx context.Context) (Identity, error) {
	raw, ok, err := g.sessions.Current(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, nil
	}

	claims, err := g.codec.Decode(raw)
	if err != nil {
		g.logger.Warn("session token rejected, clearing", slog.String("error", err.Error()))
		if clearErr := g.sessions.Clear(ctx); clearErr != nil {
			return Identity{}, errors.Join(err, clearErr)
		}
		return Identity{}, err
	}

	if claims.Expired(g.now()) {
		g.logger.Info("session token expired, clearing",
			slog.String("email", claims.Email()),
			slog.Time("expired_at", claims.ExpiresAt))
		if err := g.sessions.Clear(ctx); err != nil {
			return Identity{}, err
		}
		return Identity{}, nil
	}

	return Identity{
		Authenticated: true,
		Role:          claims.Role(),
		Email:         claims.Email(),
		UserID:        claims.UserID,
	}, nil
}

// Resolve is Snapshot for callers that only care about the identity: every
// failure degrades to unauthenticated.
func (g *Gate) Resolve(ctx context.Context) Identity {
	id, err := g.Snapshot(ctx)
	if err != nil {
		if !errors.Is(err, token.ErrMalformedToken) && !errors.Is(err, token.ErrInvalidSignature) {
			g.logger.Error("resolve session failed", slog.String("error", err.Error()))
		}
		return Identity{}
	}
	return id
}

// Logout clears the session and returns the login entry point the client
// must navigate to with a full reload.
func (g *Gate) Logout(ctx context.Context) (string, error) {
	if err := g.sessions.Clear(ctx); err != nil {
		return "", err
	}
	return g.loginPath, nil
}

// LoginPath returns the login entry point.
func (g *Gate) LoginPath() string {
	return g.loginPath
}
