// Package service orchestrates arena matches: it validates turn legality
// against the session store, resolves rounds and persists the results.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/id"
	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	"github.com/louisbranch/elemental-arena/internal/random"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/louisbranch/elemental-arena/internal/services/arena/service"

// Service runs matches for authenticated players.
type Service struct {
	table  rules.Table
	store  storage.SessionStore
	rng    random.Source
	newID  func() (string, error)
	now    func() time.Time
	logger *zap.Logger
	tracer trace.Tracer
	locks  *playerLocks
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithRandom sets the source used to pick opponents.
func WithRandom(rng random.Source) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock sets the time source for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the session ID generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New returns a Service over table and store. Opponents are picked from a
// crypto-seeded source unless WithRandom is given.
func New(table rules.Table, store storage.SessionStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if len(table.Types()) == 0 {
		return nil, fmt.Errorf("rules table is empty")
	}
	s := &Service{
		table:  table,
		store:  store,
		newID:  id.NewID,
		now:    time.Now,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		locks:  newPlayerLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		rng, err := random.NewFromCrypto()
		if err != nil {
			return nil, fmt.Errorf("seed opponent source: %w", err)
		}
		s.rng = rng
	}
	return s, nil
}

// Rules returns the table the service plays by.
func (s *Service) Rules() rules.Table {
	return s.table
}

// StartMatch replaces any session of playerID with a new match for the
// chosen creature. The player moves first.
func (s *Service) StartMatch(ctx context.Context, playerID, creatureType string) (match Match, err error) {
	ctx, span := s.tracer.Start(ctx, "arena.StartMatch")
	defer func() { endSpan(span, err) }()

	playerID, err = requirePlayer(playerID)
	if err != nil {
		return Match{}, err
	}
	creature, err := rules.ParseCreatureType(creatureType)
	if err != nil {
		return Match{}, err
	}
	span.SetAttributes(attribute.String("arena.player_creature", creature.String()))

	unlock := s.locks.lock(playerID)
	defer unlock()

	state, err := combat.NewMatch(s.table, s.rng, creature)
	if err != nil {
		return Match{}, fmt.Errorf("new match: %w", err)
	}
	sessionID, err := s.newID()
	if err != nil {
		return Match{}, fmt.Errorf("generate session id: %w", err)
	}
	sess, err := session.New(sessionID, playerID, state, s.now())
	if err != nil {
		return Match{}, fmt.Errorf("new session: %w", err)
	}
	if err := s.store.ReplaceSession(ctx, sess); err != nil {
		return Match{}, fmt.Errorf("store session: %w", err)
	}

	span.SetAttributes(
		attribute.String("arena.session_id", sess.ID),
		attribute.String("arena.ai_creature", state.AICreature.Type.String()),
	)
	s.logger.Info("match started",
		zap.String("player_id", playerID),
		zap.String("session_id", sess.ID),
		zap.Stringer("player_creature", state.PlayerCreature.Type),
		zap.Stringer("ai_creature", state.AICreature.Type),
	)
	return Match{SessionID: sess.ID, State: newView(sess, playerID)}, nil
}

// GetState returns the current state of a session owned by playerID.
func (s *Service) GetState(ctx context.Context, playerID, sessionID string) (view GameStateView, err error) {
	ctx, span := s.tracer.Start(ctx, "arena.GetState", trace.WithAttributes(attribute.String("arena.session_id", sessionID)))
	defer func() { endSpan(span, err) }()

	playerID, err = requirePlayer(playerID)
	if err != nil {
		return GameStateView{}, err
	}
	sess, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return GameStateView{}, err
	}
	return newView(sess, playerID), nil
}

// SubmitAction resolves one round of the player's session: the player's
// attack and, unless it ends the match, the AI's counter-attack.
func (s *Service) SubmitAction(ctx context.Context, playerID, sessionID string) (view GameStateView, err error) {
	ctx, span := s.tracer.Start(ctx, "arena.SubmitAction", trace.WithAttributes(attribute.String("arena.session_id", sessionID)))
	defer func() { endSpan(span, err) }()

	playerID, err = requirePlayer(playerID)
	if err != nil {
		return GameStateView{}, err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	current, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return GameStateView{}, err
	}
	if current.State.GameOver {
		s.logger.Debug("action rejected", zap.String("session_id", sessionID), zap.String("reason", "game over"))
		return GameStateView{}, ErrGameOver
	}
	if !current.YourTurn(playerID) {
		s.logger.Debug("action rejected", zap.String("session_id", sessionID), zap.String("reason", "not your turn"))
		return GameStateView{}, ErrNotYourTurn
	}

	state, err := combat.ResolveRound(s.table, current.State)
	if err != nil {
		return GameStateView{}, err
	}
	next := current.Advance(state, s.now())
	if err := s.store.UpdateSession(ctx, next, current.Version); err != nil {
		return GameStateView{}, mapStoreError("update session", err)
	}

	span.SetAttributes(
		attribute.Int("arena.player_hp", state.PlayerCreature.HP),
		attribute.Int("arena.ai_hp", state.AICreature.HP),
		attribute.Bool("arena.game_over", state.GameOver),
	)
	s.logger.Debug("round resolved",
		zap.String("session_id", sessionID),
		zap.Int("player_hp", state.PlayerCreature.HP),
		zap.Int("ai_hp", state.AICreature.HP),
	)
	if state.GameOver {
		s.logger.Info("match finished",
			zap.String("player_id", playerID),
			zap.String("session_id", sessionID),
			zap.String("winner", string(state.WinnerSide())),
		)
	}
	return newView(next, playerID), nil
}

// AbandonMatch deletes the player's sessions after confirming sessionID is
// theirs.
func (s *Service) AbandonMatch(ctx context.Context, playerID, sessionID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "arena.AbandonMatch", trace.WithAttributes(attribute.String("arena.session_id", sessionID)))
	defer func() { endSpan(span, err) }()

	playerID, err = requirePlayer(playerID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	if _, err := s.load(ctx, playerID, sessionID); err != nil {
		return err
	}
	if err := s.store.DeleteSessions(ctx, playerID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	s.logger.Info("match abandoned", zap.String("player_id", playerID), zap.String("session_id", sessionID))
	return nil
}

func (s *Service) load(ctx context.Context, playerID, sessionID string) (session.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, ErrNotFound
	}
	sess, err := s.store.GetSession(ctx, playerID, sessionID)
	if err != nil {
		return session.Session{}, mapStoreError("get session", err)
	}
	return sess, nil
}

func requirePlayer(playerID string) (string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", ErrPlayerRequired
	}
	return playerID, nil
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(ErrNotFound.Code, ErrNotFound.Message, err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(ErrConflict.Code, ErrConflict.Message, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
