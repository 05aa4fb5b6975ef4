package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issue describes a token to sign. It mirrors what the backend issues and
// exists for local tooling and tests.
type Issue struct {
	Subject  string
	UserID   *int64
	Roles    []string
	IssuedAt time.Time
	TTL      time.Duration
}

// Sign produces an HS256 token carrying the backend claim shape.
func Sign(secret []byte, in Issue) (string, error) {
	iat := in.IssuedAt
	if iat.IsZero() {
		iat = time.Now()
	}
	wc := wireClaims{
		UserID: in.UserID,
		Role:   make([]Authority, 0, len(in.Roles)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.Subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(in.TTL)),
		},
	}
	for _, r := range in.Roles {
		wc.Role = append(wc.Role, Authority{Authority: r})
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(secret)
}
