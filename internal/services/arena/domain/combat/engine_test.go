package combat

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/elemental-arena/internal/random"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
)

func newState(player, ai rules.CreatureType) GameState {
	return GameState{
		PlayerCreature: Creature{Type: player, HP: 100},
		AICreature:     Creature{Type: ai, HP: 100},
		Log:            []string{},
	}
}

func TestNewMatchNeverMirrorsPlayer(t *testing.T) {
	table := rules.Default()
	rng := random.New(1)
	for _, player := range rules.AllTypes {
		for i := 0; i < 100; i++ {
			state, err := NewMatch(table, rng, player)
			if err != nil {
				t.Fatalf("NewMatch(%s): %v", player, err)
			}
			if state.AICreature.Type == player {
				t.Fatalf("AI type = player type %s", player)
			}
		}
	}
}

func TestNewMatchResamplesUntilDifferent(t *testing.T) {
	// Indices 0,0,0 pick fire (the player's type); 3 picks air.
	seq := random.NewSequence(0, 0, 0, 3)
	state, err := NewMatch(rules.Default(), seq, rules.Fire)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	if state.AICreature.Type != rules.Air {
		t.Fatalf("AI type = %s, want air", state.AICreature.Type)
	}
	if seq.Draws() != 4 {
		t.Fatalf("draws = %d, want 4", seq.Draws())
	}
}

func TestNewMatchInitialState(t *testing.T) {
	state, err := NewMatch(rules.Default(), random.NewSequence(1), rules.Earth)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	want := GameState{
		PlayerCreature: Creature{Type: rules.Earth, HP: 100},
		AICreature:     Creature{Type: rules.Water, HP: 100},
		Log:            []string{},
	}
	if !reflect.DeepEqual(state, want) {
		t.Fatalf("state = %+v, want %+v", state, want)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNewMatchRejectsUnknownType(t *testing.T) {
	_, err := NewMatch(rules.Default(), random.New(1), "metal")
	if !errors.Is(err, rules.ErrInvalidCreature) {
		t.Fatalf("err = %v, want %v", err, rules.ErrInvalidCreature)
	}
}

func TestNewMatchRequiresSource(t *testing.T) {
	if _, err := NewMatch(rules.Default(), nil, rules.Fire); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestResolveRoundNeutralExchange(t *testing.T) {
	next, err := ResolveRound(rules.Default(), newState(rules.Fire, rules.Air))
	if err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if next.AICreature.HP != 80 || next.PlayerCreature.HP != 80 {
		t.Fatalf("hp = player %d ai %d, want 80/80", next.PlayerCreature.HP, next.AICreature.HP)
	}
	if next.GameOver || next.Winner != nil {
		t.Fatalf("game over = %v winner = %v, want running", next.GameOver, next.Winner)
	}
	want := []string{
		"Your Fire attacks! AI's Air takes 20 damage.",
		"AI's Air attacks! Your Fire takes 20 damage.",
	}
	if !reflect.DeepEqual(next.Log, want) {
		t.Fatalf("log = %q, want %q", next.Log, want)
	}
}

func TestResolveRoundElementalExchange(t *testing.T) {
	next, err := ResolveRound(rules.Default(), newState(rules.Water, rules.Fire))
	if err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if next.AICreature.HP != 70 {
		t.Fatalf("fire hp = %d, want 70", next.AICreature.HP)
	}
	if next.PlayerCreature.HP != 90 {
		t.Fatalf("water hp = %d, want 90", next.PlayerCreature.HP)
	}
}

func TestResolveRoundFireAgainstWater(t *testing.T) {
	next, err := ResolveRound(rules.Default(), newState(rules.Fire, rules.Water))
	if err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if next.AICreature.HP != 90 || next.PlayerCreature.HP != 70 {
		t.Fatalf("hp = player %d ai %d, want 70/90", next.PlayerCreature.HP, next.AICreature.HP)
	}
	if len(next.Log) != 2 {
		t.Fatalf("log length = %d, want 2", len(next.Log))
	}
}

func TestResolveRoundPlayerWinsAtExactlyZero(t *testing.T) {
	table := rules.Default()
	state := newState(rules.Air, rules.Fire)
	rounds := 0
	for !state.GameOver {
		next, err := ResolveRound(table, state)
		if err != nil {
			t.Fatalf("round %d: %v", rounds+1, err)
		}
		state = next
		rounds++
	}
	if rounds != 5 {
		t.Fatalf("rounds = %d, want 5", rounds)
	}
	if state.WinnerSide() != SidePlayer {
		t.Fatalf("winner = %q, want player", state.WinnerSide())
	}
	if state.AICreature.HP != 0 || state.PlayerCreature.HP != 20 {
		t.Fatalf("hp = player %d ai %d, want 20/0", state.PlayerCreature.HP, state.AICreature.HP)
	}
	// 4 full rounds of 2 lines, then the killing blow and the victory line.
	if len(state.Log) != 10 {
		t.Fatalf("log length = %d, want 10", len(state.Log))
	}
	if last := state.Log[len(state.Log)-1]; last != "AI's Fire has been defeated! You win!" {
		t.Fatalf("last log = %q", last)
	}
}

func TestResolveRoundPlayerWinsBelowZero(t *testing.T) {
	table := rules.Default()
	state := newState(rules.Water, rules.Fire)
	rounds := 0
	for !state.GameOver {
		next, err := ResolveRound(table, state)
		if err != nil {
			t.Fatalf("round %d: %v", rounds+1, err)
		}
		state = next
		rounds++
	}
	if rounds != 4 {
		t.Fatalf("rounds = %d, want 4", rounds)
	}
	if state.AICreature.HP != -20 {
		t.Fatalf("ai hp = %d, want -20", state.AICreature.HP)
	}
	if state.AICreature.DisplayHP() != 0 {
		t.Fatalf("display hp = %d, want 0", state.AICreature.DisplayHP())
	}
	if state.PlayerCreature.HP != 70 {
		t.Fatalf("player hp = %d, want 70", state.PlayerCreature.HP)
	}
}

func TestResolveRoundAIWins(t *testing.T) {
	table := rules.Default()
	state := newState(rules.Fire, rules.Water)
	for !state.GameOver {
		next, err := ResolveRound(table, state)
		if err != nil {
			t.Fatalf("ResolveRound: %v", err)
		}
		state = next
	}
	if state.WinnerSide() != SideAI {
		t.Fatalf("winner = %q, want ai", state.WinnerSide())
	}
	if last := state.Log[len(state.Log)-1]; last != "Your Fire has been defeated! You lose!" {
		t.Fatalf("last log = %q", last)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestResolveRoundHPIsMonotonic(t *testing.T) {
	table := rules.Default()
	for _, player := range rules.AllTypes {
		for _, ai := range rules.AllTypes {
			if player == ai {
				continue
			}
			state := newState(player, ai)
			for !state.GameOver {
				next, err := ResolveRound(table, state)
				if err != nil {
					t.Fatalf("%s vs %s: %v", player, ai, err)
				}
				if next.PlayerCreature.HP > state.PlayerCreature.HP || next.AICreature.HP > state.AICreature.HP {
					t.Fatalf("%s vs %s: hp increased", player, ai)
				}
				state = next
			}
		}
	}
}

func TestResolveRoundRejectsFinishedGame(t *testing.T) {
	winner := SidePlayer
	state := newState(rules.Fire, rules.Air)
	state.GameOver = true
	state.Winner = &winner
	state.Log = []string{"done"}

	next, err := ResolveRound(rules.Default(), state)
	if !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want %v", err, ErrGameOver)
	}
	if !reflect.DeepEqual(next, state) {
		t.Fatalf("state changed: %+v", next)
	}
}

func TestResolveRoundDoesNotAliasInput(t *testing.T) {
	state := newState(rules.Fire, rules.Air)
	state.Log = make([]string, 0, 8)
	if _, err := ResolveRound(rules.Default(), state); err != nil {
		t.Fatalf("ResolveRound: %v", err)
	}
	if state.AICreature.HP != 100 || len(state.Log) != 0 {
		t.Fatalf("input mutated: %+v", state)
	}
	if got := state.Log[:1][0]; got != "" {
		t.Fatalf("input log backing array written: %q", got)
	}
}

func TestValidate(t *testing.T) {
	player := SidePlayer
	bogus := Side("draw")
	tests := []struct {
		name    string
		state   GameState
		wantErr bool
	}{
		{name: "running", state: newState(rules.Fire, rules.Air)},
		{name: "over without winner", state: GameState{PlayerCreature: Creature{Type: rules.Fire}, AICreature: Creature{Type: rules.Air}, GameOver: true}, wantErr: true},
		{name: "winner while running", state: GameState{PlayerCreature: Creature{Type: rules.Fire}, AICreature: Creature{Type: rules.Air}, Winner: &player}, wantErr: true},
		{name: "unknown winner", state: GameState{PlayerCreature: Creature{Type: rules.Fire}, AICreature: Creature{Type: rules.Air}, GameOver: true, Winner: &bogus}, wantErr: true},
		{name: "bad type", state: GameState{PlayerCreature: Creature{Type: "metal"}, AICreature: Creature{Type: rules.Air}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
