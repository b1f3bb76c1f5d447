// Package storage defines persistence contracts for arena sessions and
// player accounts.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
)

var (
	// ErrNotFound indicates the record is missing or owned by someone else.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrConflict indicates a compare-and-swap write lost to a concurrent writer.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "record was modified concurrently")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "record already exists")
)

// SessionStore persists at most one live session per player.
type SessionStore interface {
	// ReplaceSession atomically deletes every session of s.PlayerID and
	// stores s.
	ReplaceSession(ctx context.Context, s session.Session) error
	// GetSession returns the session only when it is owned by playerID.
	GetSession(ctx context.Context, playerID, sessionID string) (session.Session, error)
	// UpdateSession overwrites the stored session when its version equals
	// expectedVersion. It returns ErrConflict on a version mismatch and
	// ErrNotFound when the session no longer exists for s.PlayerID.
	UpdateSession(ctx context.Context, s session.Session, expectedVersion int64) error
	// DeleteSessions removes every session of playerID. Deleting nothing is
	// not an error.
	DeleteSessions(ctx context.Context, playerID string) error
}

// Account is a registered player.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStore persists player accounts with unique usernames.
type AccountStore interface {
	// PutAccount inserts a new account; a taken ID or username yields
	// ErrAlreadyExists.
	PutAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
}

// Store is a complete arena backend.
type Store interface {
	SessionStore
	AccountStore
	Close() error
}
