package service

import (
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
)

// GameStateView is the caller-facing state of a match.
type GameStateView struct {
	PlayerCreature combat.Creature `json:"player_creature"`
	AICreature     combat.Creature `json:"ai_creature"`
	Log            []string        `json:"log"`
	GameOver       bool            `json:"game_over"`
	Winner         *combat.Side    `json:"winner"`
	YourTurn       bool            `json:"your_turn"`
}

// Match is a freshly started session.
type Match struct {
	SessionID string        `json:"game_id"`
	State     GameStateView `json:"game_state"`
}

// newView projects sess for playerID. HP is clamped at zero for display;
// the stored state keeps the raw value.
func newView(sess session.Session, playerID string) GameStateView {
	state := sess.State.Clone()
	state.PlayerCreature.HP = state.PlayerCreature.DisplayHP()
	state.AICreature.HP = state.AICreature.DisplayHP()
	return GameStateView{
		PlayerCreature: state.PlayerCreature,
		AICreature:     state.AICreature,
		Log:            state.Log,
		GameOver:       state.GameOver,
		Winner:         state.Winner,
		YourTurn:       sess.YourTurn(playerID),
	}
}
