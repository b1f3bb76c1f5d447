// Package bbolt provides a BoltDB-backed arena store. Records are stored as
// JSON; sessions are keyed by player so a player holds at most one.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"go.etcd.io/bbolt"
)

const (
	sessionBucket  = "sessions"
	accountBucket  = "accounts"
	usernameBucket = "account_usernames"
)

// Store provides a BoltDB-backed arena store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReplaceSession stores sess as the only session of its player.
func (s *Store) ReplaceSession(ctx context.Context, sess session.Session) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := requireBucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(sess.PlayerID), payload)
	})
}

// GetSession returns the player's session when its ID matches sessionID.
func (s *Store) GetSession(ctx context.Context, playerID, sessionID string) (session.Session, error) {
	if err := s.check(ctx); err != nil {
		return session.Session{}, err
	}
	var sess session.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := requireBucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		found, err := readSession(bucket, playerID)
		if err != nil {
			return err
		}
		if found.ID != sessionID {
			return storage.ErrNotFound
		}
		sess = found
		return nil
	})
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// UpdateSession overwrites the session when the stored version matches.
func (s *Store) UpdateSession(ctx context.Context, sess session.Session, expectedVersion int64) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := requireBucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		current, err := readSession(bucket, sess.PlayerID)
		if err != nil {
			return err
		}
		if current.ID != sess.ID {
			return storage.ErrNotFound
		}
		if current.Version != expectedVersion {
			return storage.ErrConflict
		}
		return bucket.Put([]byte(sess.PlayerID), payload)
	})
}

// DeleteSessions removes the player's session, if any.
func (s *Store) DeleteSessions(ctx context.Context, playerID string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := requireBucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(playerID))
	})
}

// PutAccount inserts an account and claims its username.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(account.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(account.Username) == "" {
		return fmt.Errorf("username is required")
	}
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		accounts, err := requireBucket(tx, accountBucket)
		if err != nil {
			return err
		}
		usernames, err := requireBucket(tx, usernameBucket)
		if err != nil {
			return err
		}
		if accounts.Get([]byte(account.ID)) != nil || usernames.Get([]byte(account.Username)) != nil {
			return storage.ErrAlreadyExists
		}
		if err := accounts.Put([]byte(account.ID), payload); err != nil {
			return err
		}
		return usernames.Put([]byte(account.Username), []byte(account.ID))
	})
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (storage.Account, error) {
	if err := s.check(ctx); err != nil {
		return storage.Account{}, err
	}
	var account storage.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		accounts, err := requireBucket(tx, accountBucket)
		if err != nil {
			return err
		}
		account, err = readAccount(accounts, id)
		return err
	})
	return account, err
}

// GetAccountByUsername returns an account by exact username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (storage.Account, error) {
	if err := s.check(ctx); err != nil {
		return storage.Account{}, err
	}
	var account storage.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		usernames, err := requireBucket(tx, usernameBucket)
		if err != nil {
			return err
		}
		id := usernames.Get([]byte(username))
		if id == nil {
			return storage.ErrNotFound
		}
		accounts, err := requireBucket(tx, accountBucket)
		if err != nil {
			return err
		}
		account, err = readAccount(accounts, string(id))
		return err
	})
	return account, err
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{sessionBucket, accountBucket, usernameBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func requireBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket is missing", name)
	}
	return bucket, nil
}

// readSession decodes the stored value. bbolt values are only valid inside
// the transaction, so decoding always produces a fresh copy.
func readSession(bucket *bbolt.Bucket, playerID string) (session.Session, error) {
	payload := bucket.Get([]byte(playerID))
	if payload == nil {
		return session.Session{}, storage.ErrNotFound
	}
	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return session.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func readAccount(bucket *bbolt.Bucket, id string) (storage.Account, error) {
	payload := bucket.Get([]byte(id))
	if payload == nil {
		return storage.Account{}, storage.ErrNotFound
	}
	var account storage.Account
	if err := json.Unmarshal(payload, &account); err != nil {
		return storage.Account{}, fmt.Errorf("unmarshal account: %w", err)
	}
	return account, nil
}

var _ storage.Store = (*Store)(nil)
