package token

import (
	"encoding/base64"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/starford/mindatlas/internal/rbac"
)

var secret = []byte("test-secret")

func mint(t *testing.T, in Issue) string {
	t.Helper()
	raw, err := Sign(secret, in)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func mustDecode(t *testing.T, raw string) Claims {
	t.Helper()
	c, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return c
}

func int64Ptr(v int64) *int64 { return &v }

func TestDecodeClaims(t *testing.T) {
	iat := time.Unix(1_700_000_000, 0)
	raw := mint(t, Issue{
		Subject:  "ada@example.com",
		UserID:   int64Ptr(42),
		Roles:    []string{"ROLE_USER", "ROLE_ADMIN"},
		IssuedAt: iat,
		TTL:      time.Hour,
	})

	c := mustDecode(t, raw)
	if c.Email() != "ada@example.com" {
		t.Errorf("email = %q", c.Email())
	}
	// Only the first role is consulted.
	if c.Role() != rbac.RoleUser {
		t.Errorf("role = %v, want %v", c.Role(), rbac.RoleUser)
	}
	if c.IssuedAt.Unix() != iat.Unix() {
		t.Errorf("iat = %v, want %v", c.IssuedAt, iat)
	}
	if c.ExpiresAt.Unix() != iat.Add(time.Hour).Unix() {
		t.Errorf("exp = %v, want %v", c.ExpiresAt, iat.Add(time.Hour))
	}

	id, ok := c.LookupUserID()
	if !ok || id != 42 {
		t.Errorf("user id = %d, %v; want 42, true", id, ok)
	}
}

func TestDecodeWithoutUserID(t *testing.T) {
	c := mustDecode(t, mint(t, Issue{Subject: "old@example.com", Roles: []string{"ROLE_USER"}, TTL: time.Hour}))
	if _, ok := c.LookupUserID(); ok {
		t.Error("expected no user id")
	}
	if c.UserID != nil {
		t.Errorf("UserID = %v, want nil", *c.UserID)
	}
}

func TestDecodeEmptyRolesIsUnknown(t *testing.T) {
	c := mustDecode(t, mint(t, Issue{Subject: "x@example.com", TTL: time.Hour}))
	if c.Role() != rbac.RoleUnknown {
		t.Errorf("role = %v, want unknown", c.Role())
	}
}

func TestDecodeIsPure(t *testing.T) {
	raw := mint(t, Issue{Subject: "p@example.com", UserID: int64Ptr(7), Roles: []string{"ROLE_ADMIN"}, TTL: time.Minute})
	a := mustDecode(t, raw)
	b := mustDecode(t, raw)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("decode not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestDecodeMalformed(t *testing.T) {
	noExp := "eyJhbGciOiJIUzI1NiJ9." +
		base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"a@b.c","role":[]}`)) + ".sig"
	noSub := "eyJhbGciOiJIUzI1NiJ9." +
		base64.RawURLEncoding.EncodeToString([]byte(`{"exp":4102444800}`)) + ".sig"

	for _, raw := range []string{"", "garbage", "a.b", "a.!!!.c", noExp, noSub} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedToken", raw, err)
		}
	}
}

func TestDecodeAcceptsBearerPrefix(t *testing.T) {
	raw := mint(t, Issue{Subject: "b@example.com", TTL: time.Hour})
	c := mustDecode(t, "Bearer "+raw)
	if c.Subject != "b@example.com" {
		t.Errorf("subject = %q", c.Subject)
	}
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	future := mint(t, Issue{Subject: "f@example.com", IssuedAt: now, TTL: time.Hour})
	past := mint(t, Issue{Subject: "p@example.com", IssuedAt: now.Add(-2 * time.Hour), TTL: time.Hour})

	if IsExpired(future, now) {
		t.Error("future token reported expired")
	}
	if !IsExpired(past, now) {
		t.Error("past token reported valid")
	}
	if !IsExpired("not-a-token", now) {
		t.Error("garbage reported valid")
	}

	c := mustDecode(t, future)
	if !c.Expired(c.ExpiresAt) {
		t.Error("expiry instant itself should not be valid")
	}
	if c.Expired(c.ExpiresAt.Add(-time.Second)) {
		t.Error("one second before expiry should be valid")
	}
}

func TestVerifyingCodec(t *testing.T) {
	raw := mint(t, Issue{Subject: "v@example.com", Roles: []string{"ROLE_USER"}, TTL: time.Hour})

	ok := NewCodec(string(secret))
	if !ok.Verifying() {
		t.Fatal("codec with secret should verify")
	}
	if _, err := ok.Decode(raw); err != nil {
		t.Fatalf("decode: %v", err)
	}

	wrong := NewCodec("other-secret")
	if _, err := wrong.Decode(raw); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wrong secret err = %v, want ErrInvalidSignature", err)
	}
	if _, err := wrong.Decode("garbage"); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("garbage err = %v, want ErrMalformedToken", err)
	}
}

func TestVerifyingCodecDecodesExpired(t *testing.T) {
	raw := mint(t, Issue{Subject: "e@example.com", IssuedAt: time.Now().Add(-time.Hour), TTL: time.Minute})
	c, err := NewCodec(string(secret)).Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !c.Expired(time.Now()) {
		t.Error("expected expired claims")
	}
}
