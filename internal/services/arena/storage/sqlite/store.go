// Package sqlite provides a SQLite-backed arena storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/elemental-arena/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists sessions and accounts in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite arena store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_synchronous=NORMAL&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ReplaceSession deletes the player's sessions and inserts sess in one transaction.
func (s *Store) ReplaceSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	state, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE player_id = ?`, sess.PlayerID); err != nil {
		return fmt.Errorf("delete prior sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, player_id, turn_holder, game_state, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.PlayerID,
		nullableString(sess.TurnHolder),
		string(state),
		sess.Version,
		toMillis(sess.CreatedAt),
		toMillis(sess.UpdatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace session: %w", err)
	}
	return nil
}

// GetSession returns a session owned by playerID.
func (s *Store) GetSession(ctx context.Context, playerID, sessionID string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	if err := s.ready(); err != nil {
		return session.Session{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, player_id, turn_holder, game_state, version, created_at, updated_at
		 FROM sessions WHERE id = ? AND player_id = ?`,
		sessionID, playerID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// UpdateSession writes sess when the stored version equals expectedVersion.
func (s *Store) UpdateSession(ctx context.Context, sess session.Session, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	state, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions
		 SET turn_holder = ?, game_state = ?, version = ?, updated_at = ?
		 WHERE id = ? AND player_id = ? AND version = ?`,
		nullableString(sess.TurnHolder),
		string(state),
		sess.Version,
		toMillis(sess.UpdatedAt),
		sess.ID,
		sess.PlayerID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var found int
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = ? AND player_id = ?`, sess.ID, sess.PlayerID,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	return storage.ErrConflict
}

// DeleteSessions removes every session of playerID.
func (s *Store) DeleteSessions(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE player_id = ?`, playerID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// PutAccount inserts one account.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(account.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(account.Username) == "" {
		return fmt.Errorf("username is required")
	}
	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.PasswordHash,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (storage.Account, error) {
	return s.getAccount(ctx, `WHERE id = ?`, id)
}

// GetAccountByUsername returns an account by exact username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (storage.Account, error) {
	return s.getAccount(ctx, `WHERE username = ?`, username)
}

func (s *Store) getAccount(ctx context.Context, where string, arg string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Account{}, err
	}
	var (
		account   storage.Account
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM accounts `+where, arg,
	).Scan(&account.ID, &account.Username, &account.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("get account: %w", err)
	}
	account.CreatedAt = fromMillis(createdAt)
	return account, nil
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		sess       session.Session
		turnHolder sql.NullString
		state      string
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&sess.ID, &sess.PlayerID, &turnHolder, &state, &sess.Version, &createdAt, &updatedAt); err != nil {
		return session.Session{}, err
	}
	var gameState combat.GameState
	if err := json.Unmarshal([]byte(state), &gameState); err != nil {
		return session.Session{}, fmt.Errorf("unmarshal game state: %w", err)
	}
	if gameState.Log == nil {
		gameState.Log = []string{}
	}
	sess.State = gameState
	sess.TurnHolder = turnHolder.String
	sess.CreatedAt = fromMillis(createdAt)
	sess.UpdatedAt = fromMillis(updatedAt)
	return sess, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
