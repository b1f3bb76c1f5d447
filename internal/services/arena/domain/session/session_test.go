package session

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func runningState() combat.GameState {
	return combat.GameState{
		PlayerCreature: combat.Creature{Type: rules.Fire, HP: 100},
		AICreature:     combat.Creature{Type: rules.Air, HP: 100},
		Log:            []string{},
	}
}

func finishedState() combat.GameState {
	winner := combat.SideAI
	state := runningState()
	state.PlayerCreature.HP = -10
	state.GameOver = true
	state.Winner = &winner
	state.Log = []string{"Your Fire has been defeated! You lose!"}
	return state
}

func TestNewGivesOwnerFirstTurn(t *testing.T) {
	s, err := New("s1", "p1", runningState(), testNow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.TurnHolder != "p1" {
		t.Fatalf("turn holder = %q, want p1", s.TurnHolder)
	}
	if s.Version != 1 {
		t.Fatalf("version = %d, want 1", s.Version)
	}
	if !s.YourTurn("p1") || s.YourTurn("p2") {
		t.Fatal("YourTurn mismatch")
	}
}

func TestNewRequiresIdentity(t *testing.T) {
	if _, err := New("", "p1", runningState(), testNow); err == nil {
		t.Fatal("expected missing id error")
	}
	if _, err := New("s1", " ", runningState(), testNow); err == nil {
		t.Fatal("expected missing player error")
	}
}

func TestAdvance(t *testing.T) {
	s, err := New("s1", "p1", runningState(), testNow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	later := testNow.Add(time.Minute)

	running := s.Advance(runningState(), later)
	if running.TurnHolder != "p1" || running.Version != 2 || !running.UpdatedAt.Equal(later) {
		t.Fatalf("running advance = %+v", running)
	}
	if !running.CreatedAt.Equal(testNow) {
		t.Fatalf("created at changed: %v", running.CreatedAt)
	}

	over := running.Advance(finishedState(), later)
	if over.TurnHolder != "" || over.YourTurn("p1") {
		t.Fatalf("finished session still has a turn holder: %q", over.TurnHolder)
	}
	if err := over.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateTurnHolderInvariant(t *testing.T) {
	s, err := New("s1", "p1", runningState(), testNow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.TurnHolder = ""
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "turn holder") {
		t.Fatalf("err = %v, want turn holder error", err)
	}
}

func TestJSONRecordShape(t *testing.T) {
	s, err := New("s1", "p1", finishedState(), testNow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["current_turn_holder"] != nil {
		t.Fatalf("current_turn_holder = %v, want null", raw["current_turn_holder"])
	}
	state, ok := raw["game_state"].(map[string]any)
	if !ok {
		t.Fatalf("game_state missing: %s", data)
	}
	if state["winner"] != "ai" {
		t.Fatalf("winner = %v, want ai", state["winner"])
	}

	var decoded Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, s) {
		t.Fatalf("decoded = %+v, want %+v", decoded, s)
	}
}
