package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/starford/mindatlas/internal/apperr"
	"github.com/starford/mindatlas/internal/backend"
	"github.com/starford/mindatlas/internal/token"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Login signs in against the backend and stores the issued token in the
// session slot shared with the server.
func Login(ctx context.Context, mail, password string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := newCore(app.config, app.logger(), false)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.backend.Login(ctx, backend.Credentials{Mail: mail, Password: password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return storeToken(ctx, c, app.out, resp.AccessToken)
}

// UseToken stores an already issued token as the current session.
func UseToken(ctx context.Context, raw string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := newCore(app.config, app.logger(), false)
	if err != nil {
		return err
	}
	defer c.Close()

	return storeToken(ctx, c, app.out, raw)
}

func storeToken(ctx context.Context, c *core, out io.Writer, raw string) error {
	claims, err := c.codec.Decode(raw)
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}
	if claims.Expired(time.Now()) {
		return fmt.Errorf("token expired at %s: %w", claims.ExpiresAt.Format(time.RFC3339), apperr.ErrUnauthorized)
	}
	if err := c.sessions.Persist(ctx, raw); err != nil {
		return err
	}
	id, err := c.gate.Snapshot(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, id)
}

// Logout clears the session slot.
func Logout(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := newCore(app.config, app.logger(), false)
	if err != nil {
		return err
	}
	defer c.Close()

	loc, err := c.gate.Logout(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	_, err = fmt.Fprintf(app.out, "signed out; continue at %s\n", loc)
	return err
}

// Whoami prints the identity derived from the session slot. A corrupt token
// is purged and reported.
func Whoami(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := newCore(app.config, app.logger(), false)
	if err != nil {
		return err
	}
	defer c.Close()

	id, err := c.gate.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, token.ErrMalformedToken) || errors.Is(err, token.ErrInvalidSignature) {
			fmt.Fprintf(app.out, "stored token was unreadable and has been cleared: %v\n", err)
			return printJSON(app.out, id)
		}
		return err
	}
	return printJSON(app.out, id)
}

// TokenReport is the printable form of decoded claims.
type TokenReport struct {
	Subject   string    `json:"sub"`
	UserID    *int64    `json:"id,omitempty"`
	Roles     []string  `json:"roles"`
	Role      string    `json:"effective_role"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
	Verified  bool      `json:"signature_verified"`
}

// InspectToken decodes raw without touching the session and prints its
// claims.
func InspectToken(raw string, now time.Time, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	codec := token.NewCodec(app.config.Auth.VerifySecret)
	claims, err := codec.Decode(raw)
	if err != nil {
		return err
	}
	return printJSON(app.out, TokenReport{
		Subject:   claims.Subject,
		UserID:    claims.UserID,
		Roles:     claims.Roles,
		Role:      claims.Role().String(),
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
		Expired:   claims.Expired(now),
		Verified:  codec.Verifying(),
	})
}
