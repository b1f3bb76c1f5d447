// Package account registers and authenticates arena players.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/id"
	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 64

var (
	ErrInvalidUsername    = apperrors.New(apperrors.CodeInvalidArgument, "Username must be 1 to 64 characters.")
	ErrInvalidPassword    = apperrors.New(apperrors.CodeInvalidArgument, "Password is required.")
	ErrPasswordTooLong    = apperrors.New(apperrors.CodeInvalidArgument, "Password must be at most 72 bytes.")
	ErrUsernameTaken      = apperrors.New(apperrors.CodeUsernameTaken, "Username already exists.")
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "Invalid credentials")
)

// Service owns password hashing and account lookups.
type Service struct {
	store  storage.AccountStore
	cost   int
	now    func() time.Time
	logger *zap.Logger
	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// New returns an account service. cost <= 0 selects bcrypt.DefaultCost.
func New(store storage.AccountStore, cost int, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("elemental-arena"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}
	return &Service{
		store:     store,
		cost:      cost,
		now:       time.Now,
		logger:    logging.OrNop(logger),
		dummyHash: dummy,
	}, nil
}

// Register creates an account with a unique username.
func (s *Service) Register(ctx context.Context, username, password string) (storage.Account, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n == 0 || n > MaxUsernameLength {
		return storage.Account{}, ErrInvalidUsername
	}
	if password == "" {
		return storage.Account{}, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return storage.Account{}, ErrPasswordTooLong
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("hash password: %w", err)
	}
	accountID, err := id.NewID()
	if err != nil {
		return storage.Account{}, fmt.Errorf("generate account id: %w", err)
	}

	account := storage.Account{
		ID:           accountID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.PutAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.Account{}, ErrUsernameTaken
		}
		return storage.Account{}, fmt.Errorf("put account: %w", err)
	}
	s.logger.Info("account registered", zap.String("player_id", account.ID), zap.String("username", username))
	return account, nil
}

// Authenticate returns the account matching username and password. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (storage.Account, error) {
	username = strings.TrimSpace(username)
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return storage.Account{}, fmt.Errorf("get account: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return storage.Account{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.logger.Debug("login rejected", zap.String("username", username))
		return storage.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Lookup returns the account with the given ID.
func (s *Service) Lookup(ctx context.Context, accountID string) (storage.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Account{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "Not logged in", err)
		}
		return storage.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}
