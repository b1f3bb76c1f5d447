// Package memory provides an in-process arena store. State is lost on exit.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
)

// Store keeps sessions keyed by player and accounts keyed by ID.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]session.Session
	accounts  map[string]storage.Account
	usernames map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		sessions:  make(map[string]session.Session),
		accounts:  make(map[string]storage.Account),
		usernames: make(map[string]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ReplaceSession stores sess as the only session of its player.
func (s *Store) ReplaceSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.PlayerID] = cloneSession(sess)
	return nil
}

// GetSession returns the player's session when its ID matches sessionID.
func (s *Store) GetSession(ctx context.Context, playerID, sessionID string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[playerID]
	if !ok || sess.ID != sessionID {
		return session.Session{}, storage.ErrNotFound
	}
	return cloneSession(sess), nil
}

// UpdateSession overwrites the session when the stored version matches.
func (s *Store) UpdateSession(ctx context.Context, sess session.Session, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.PlayerID]
	if !ok || current.ID != sess.ID {
		return storage.ErrNotFound
	}
	if current.Version != expectedVersion {
		return storage.ErrConflict
	}
	s.sessions[sess.PlayerID] = cloneSession(sess)
	return nil
}

// DeleteSessions removes the player's session, if any.
func (s *Store) DeleteSessions(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
	return nil
}

// PutAccount inserts an account with a unique ID and username.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(account.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(account.Username) == "" {
		return fmt.Errorf("username is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return storage.ErrAlreadyExists
	}
	if _, ok := s.usernames[account.Username]; ok {
		return storage.ErrAlreadyExists
	}
	s.accounts[account.ID] = account
	s.usernames[account.Username] = account.ID
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	return account, nil
}

// GetAccountByUsername returns an account by its exact username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	return s.accounts[id], nil
}

func cloneSession(sess session.Session) session.Session {
	sess.State = sess.State.Clone()
	return sess
}

var _ storage.Store = (*Store)(nil)
