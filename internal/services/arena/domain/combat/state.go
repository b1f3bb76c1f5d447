package combat

import (
	"fmt"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
)

// Side identifies a combatant.
type Side string

const (
	SidePlayer Side = "player"
	SideAI     Side = "ai"
)

// Creature is a live combatant. HP may drop below zero; defeat is hp <= 0.
type Creature struct {
	Type rules.CreatureType `json:"type"`
	HP   int                `json:"hp"`
}

// Defeated reports whether the creature has no health left.
func (c Creature) Defeated() bool {
	return c.HP <= 0
}

// DisplayHP clamps HP at zero for presentation.
func (c Creature) DisplayHP() int {
	if c.HP < 0 {
		return 0
	}
	return c.HP
}

// GameState is one match between the player and the AI.
type GameState struct {
	PlayerCreature Creature `json:"player_creature"`
	AICreature     Creature `json:"ai_creature"`
	Log            []string `json:"log"`
	GameOver       bool     `json:"game_over"`
	Winner         *Side    `json:"winner"`
}

// Clone returns a deep copy so callers never share log backing arrays.
func (s GameState) Clone() GameState {
	out := s
	out.Log = make([]string, len(s.Log))
	copy(out.Log, s.Log)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}

// WinnerSide returns the winner, or the empty Side while the match runs.
func (s GameState) WinnerSide() Side {
	if s.Winner == nil {
		return ""
	}
	return *s.Winner
}

// Validate checks the structural invariants of a stored state.
func (s GameState) Validate() error {
	if !s.PlayerCreature.Type.Valid() {
		return fmt.Errorf("player creature type %q is invalid", s.PlayerCreature.Type)
	}
	if !s.AICreature.Type.Valid() {
		return fmt.Errorf("ai creature type %q is invalid", s.AICreature.Type)
	}
	if s.GameOver != (s.Winner != nil) {
		return fmt.Errorf("winner must be set exactly when the game is over")
	}
	if s.Winner != nil && *s.Winner != SidePlayer && *s.Winner != SideAI {
		return fmt.Errorf("winner %q is invalid", *s.Winner)
	}
	return nil
}
