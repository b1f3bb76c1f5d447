package combat

import (
	"fmt"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/random"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrGameOver is returned when a round is requested for a finished match.
var ErrGameOver = apperrors.New(apperrors.CodeGameOver, "Game is already over")

// NewMatch starts a match for the player's creature against a uniformly
// chosen AI creature of a different type. Both start at full health.
func NewMatch(table rules.Table, rng random.Source, player rules.CreatureType) (GameState, error) {
	playerProfile, ok := table.Profile(player)
	if !ok {
		return GameState{}, rules.ErrInvalidCreature
	}
	types := table.Types()
	if len(types) < 2 {
		return GameState{}, fmt.Errorf("rules table needs at least two creature types, has %d", len(types))
	}
	if rng == nil {
		return GameState{}, fmt.Errorf("random source is required")
	}

	opponent := player
	for opponent == player {
		opponent = types[rng.IntN(len(types))]
	}
	opponentProfile, _ := table.Profile(opponent)

	return GameState{
		PlayerCreature: Creature{Type: player, HP: playerProfile.HP},
		AICreature:     Creature{Type: opponent, HP: opponentProfile.HP},
		Log:            []string{},
	}, nil
}

// ResolveRound plays the player's strike and, if the AI survives, its
// counter-strike. The input state is not modified.
func ResolveRound(table rules.Table, state GameState) (GameState, error) {
	if state.GameOver {
		return state, ErrGameOver
	}
	next := state.Clone()
	title := cases.Title(language.English)
	player := title.String(string(next.PlayerCreature.Type))
	ai := title.String(string(next.AICreature.Type))

	dealt := strike(table, next.PlayerCreature, &next.AICreature)
	next.Log = append(next.Log, fmt.Sprintf("Your %s attacks! AI's %s takes %d damage.", player, ai, dealt))
	if next.AICreature.Defeated() {
		next.finish(SidePlayer)
		next.Log = append(next.Log, fmt.Sprintf("AI's %s has been defeated! You win!", ai))
		return next, nil
	}

	dealt = strike(table, next.AICreature, &next.PlayerCreature)
	next.Log = append(next.Log, fmt.Sprintf("AI's %s attacks! Your %s takes %d damage.", ai, player, dealt))
	if next.PlayerCreature.Defeated() {
		next.finish(SideAI)
		next.Log = append(next.Log, fmt.Sprintf("Your %s has been defeated! You lose!", player))
	}
	return next, nil
}

func strike(table rules.Table, attacker Creature, defender *Creature) int {
	profile, _ := table.Profile(attacker.Type)
	damage := ComputeDamage(table, attacker.Type, defender.Type, profile.Attack)
	defender.HP -= damage
	return damage
}

func (s *GameState) finish(winner Side) {
	s.GameOver = true
	s.Winner = &winner
}
