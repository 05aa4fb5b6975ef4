// Package token decodes the bearer tokens issued by the backend auth
// endpoint into the claims the session layer reasons about.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/mindatlas/internal/rbac"
)

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Authority is one entry of the backend's role claim.
type Authority struct {
	Authority string `json:"authority"`
}

// wireClaims mirrors the payload issued by the backend:
// {"sub": email, "id": 42, "role": [{"authority": "ROLE_USER"}], "iat": ..., "exp": ...}.
type wireClaims struct {
	UserID *int64      `json:"id,omitempty"`
	Role   []Authority `json:"role"`
	jwt.RegisteredClaims
}

// Claims is the decoded view of a session token.
type Claims struct {
	Subject   string
	UserID    *int64
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Email returns the account email carried as the subject.
func (c Claims) Email() string {
	return c.Subject
}

// LookupUserID returns the numeric user id when the issuer embedded one.
func (c Claims) LookupUserID() (int64, bool) {
	if c.UserID == nil {
		return 0, false
	}
	return *c.UserID, true
}

// Role returns the first role marker. Only the first entry is consulted;
// an empty list yields rbac.RoleUnknown.
func (c Claims) Role() rbac.Role {
	if len(c.Roles) == 0 {
		return rbac.RoleUnknown
	}
	return rbac.Normalize(c.Roles[0])
}

// Expired reports whether the token is no longer valid at now.
// A token is valid only while exp*1000 > now in milliseconds.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt.UnixMilli() <= now.UnixMilli()
}

// Codec decodes tokens. With a secret it also verifies the HS256
// signature; without one it only parses the payload, which is all the
// client side ever needs for UI decisions.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec. An empty secret disables signature checks.
func NewCodec(secret string) *Codec {
	c := &Codec{}
	if secret != "" {
		c.secret = []byte(secret)
	}
	return c
}

// Verifying reports whether signatures are checked.
func (c *Codec) Verifying() bool {
	return len(c.secret) > 0
}

// Decode parses raw into Claims. Expiry is not enforced here: an expired
// token still decodes so the caller can purge it.
func (c *Codec) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return Claims{}, ErrMalformedToken
	}

	var wc wireClaims
	if c.Verifying() {
		_, err := jwt.ParseWithClaims(raw, &wc, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return c.secret, nil
		}, jwt.WithoutClaimsValidation())
		if err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
			}
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &wc); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	return fromWire(wc)
}

func fromWire(wc wireClaims) (Claims, error) {
	if wc.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	if wc.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing expiry", ErrMalformedToken)
	}

	claims := Claims{
		Subject:   wc.Subject,
		ExpiresAt: wc.ExpiresAt.Time,
		Roles:     make([]string, 0, len(wc.Role)),
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.UserID != nil {
		id := *wc.UserID
		claims.UserID = &id
	}
	for _, a := range wc.Role {
		claims.Roles = append(claims.Roles, a.Authority)
	}
	return claims, nil
}

// Decode parses raw without signature verification.
func Decode(raw string) (Claims, error) {
	return (&Codec{}).Decode(raw)
}

// IsExpired decodes raw and reports whether it has expired at now.
// Undecodable tokens count as expired.
func IsExpired(raw string, now time.Time) bool {
	c, err := Decode(raw)
	if err != nil {
		return true
	}
	return c.Expired(now)
}
