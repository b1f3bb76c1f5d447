package web

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/elemental-arena/internal/platform/requestctx"
)

// SessionCookieName holds the signed player token.
const SessionCookieName = "arena_session"

const tokenIssuer = "elemental-arena"

var errInvalidToken = errors.New("invalid session token")

// Tokens issues and verifies HS256 player tokens.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type playerClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// NewTokens returns a token codec signing with key. An empty key selects a
// random per-process key, so tokens do not survive a restart.
func NewTokens(key []byte, ttl time.Duration) (*Tokens, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}
	return &Tokens{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for player and returns it with its expiry.
func (t *Tokens) Issue(player requestctx.Player) (string, time.Time, error) {
	if strings.TrimSpace(player.ID) == "" {
		return "", time.Time{}, fmt.Errorf("player id is required")
	}
	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims := playerClaims{
		Name: player.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   player.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, issuer and expiry and returns the player.
func (t *Tokens) Verify(token string) (requestctx.Player, error) {
	claims := &playerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return requestctx.Player{}, fmt.Errorf("%w: %w", errInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return requestctx.Player{}, errInvalidToken
	}
	return requestctx.Player{ID: claims.Subject, Username: claims.Name}, nil
}
