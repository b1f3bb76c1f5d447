// Package session binds a game state to the player who owns it and tracks
// whose turn it is.
package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
)

// Session is the single live match of a player.
//
// TurnHolder is empty exactly when the game is over. Version increases by one
// on every persisted update and guards compare-and-swap writes.
type Session struct {
	ID         string
	PlayerID   string
	TurnHolder string
	State      combat.GameState
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates the first version of a session. The owner moves first.
func New(id, playerID string, state combat.GameState, now time.Time) (Session, error) {
	s := Session{
		ID:         strings.TrimSpace(id),
		PlayerID:   strings.TrimSpace(playerID),
		TurnHolder: strings.TrimSpace(playerID),
		State:      state.Clone(),
		Version:    1,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if state.GameOver {
		s.TurnHolder = ""
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Advance returns the session after a resolved round. The turn goes back to
// the owner unless the game ended.
func (s Session) Advance(next combat.GameState, now time.Time) Session {
	out := s
	out.State = next.Clone()
	out.TurnHolder = s.PlayerID
	if next.GameOver {
		out.TurnHolder = ""
	}
	out.Version = s.Version + 1
	out.UpdatedAt = now.UTC()
	return out
}

// YourTurn reports whether playerID may submit the next action.
func (s Session) YourTurn(playerID string) bool {
	return s.TurnHolder != "" && s.TurnHolder == playerID
}

// Validate checks identity fields and the turn-holder invariant.
func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if s.Version < 1 {
		return fmt.Errorf("version must be positive, got %d", s.Version)
	}
	if s.State.GameOver != (s.TurnHolder == "") {
		return fmt.Errorf("turn holder must be empty exactly when the game is over")
	}
	return s.State.Validate()
}

type record struct {
	SessionID  string           `json:"session_id"`
	PlayerID   string           `json:"player_id"`
	TurnHolder *string          `json:"current_turn_holder"`
	GameState  combat.GameState `json:"game_state"`
	Version    int64            `json:"version"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// MarshalJSON encodes the persisted session record.
func (s Session) MarshalJSON() ([]byte, error) {
	r := record{
		SessionID: s.ID,
		PlayerID:  s.PlayerID,
		GameState: s.State,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.TurnHolder != "" {
		holder := s.TurnHolder
		r.TurnHolder = &holder
	}
	if r.GameState.Log == nil {
		r.GameState.Log = []string{}
	}
	return json.Marshal(r)
}

// UnmarshalJSON decodes a persisted session record.
func (s *Session) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = Session{
		ID:        r.SessionID,
		PlayerID:  r.PlayerID,
		State:     r.GameState,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.TurnHolder != nil {
		s.TurnHolder = *r.TurnHolder
	}
	if s.State.Log == nil {
		s.State.Log = []string{}
	}
	return nil
}
