package web

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/elemental-arena/internal/platform/requestctx"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens, err := NewTokens([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	token, expiresAt, err := tokens.Issue(requestctx.Player{ID: "p1", Username: "ember"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiresAt = %v, want future", expiresAt)
	}
	player, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if player != (requestctx.Player{ID: "p1", Username: "ember"}) {
		t.Fatalf("player = %+v", player)
	}
}

func TestTokensRejectInvalid(t *testing.T) {
	tokens, err := NewTokens([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	other, err := NewTokens([]byte("other"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	forged, _, err := other.Issue(requestctx.Player{ID: "p1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired, err := NewTokens([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue(requestctx.Player{ID: "p1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "p1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":   "not-a-token",
		"wrong key": forged,
		"expired":   stale,
		"alg none":  none,
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(token); !errors.Is(err, errInvalidToken) {
				t.Fatalf("err = %v, want %v", err, errInvalidToken)
			}
		})
	}
}

func TestNewTokensRandomKey(t *testing.T) {
	a, err := NewTokens(nil, time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	b, err := NewTokens(nil, time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	token, _, err := a.Issue(requestctx.Player{ID: "p1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatal("token verified under a different random key")
	}
	if _, err := NewTokens(nil, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, _, err := a.Issue(requestctx.Player{}); err == nil {
		t.Fatal("expected error for anonymous player")
	}
}
