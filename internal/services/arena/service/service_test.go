package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/random"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage/memory"
)

var fixedNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

// Opponent indices into rules.AllTypes.
const (
	pickFire = iota
	pickWater
	pickEarth
	pickAir
)

func newTestService(t *testing.T, store storage.SessionStore, picks ...int) *Service {
	t.Helper()
	counter := 0
	svc, err := New(rules.Default(), store,
		WithRandom(random.NewSequence(picks...)),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() (string, error) {
			counter++
			return fmt.Sprintf("session-%d", counter), nil
		}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(rules.Default(), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(rules.Table{}, memory.New()); err == nil {
		t.Fatal("expected error for empty rules table")
	}
	if _, err := New(rules.Default(), memory.New()); err != nil {
		t.Fatalf("New with crypto source: %v", err)
	}
}

func TestStartMatch(t *testing.T) {
	svc := newTestService(t, memory.New(), pickWater)

	match, err := svc.StartMatch(context.Background(), "p1", " Fire ")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if match.SessionID != "session-1" {
		t.Fatalf("session id = %q, want session-1", match.SessionID)
	}
	state := match.State
	if state.PlayerCreature != (combat.Creature{Type: rules.Fire, HP: 100}) {
		t.Fatalf("player creature = %+v", state.PlayerCreature)
	}
	if state.AICreature != (combat.Creature{Type: rules.Water, HP: 100}) {
		t.Fatalf("ai creature = %+v", state.AICreature)
	}
	if len(state.Log) != 0 || state.GameOver || state.Winner != nil || !state.YourTurn {
		t.Fatalf("initial state = %+v", state)
	}
}

func TestStartMatchErrors(t *testing.T) {
	svc := newTestService(t, memory.New())
	tests := []struct {
		name     string
		playerID string
		creature string
		want     error
	}{
		{name: "unknown creature", playerID: "p1", creature: "lightning", want: ErrInvalidCreature},
		{name: "empty creature", playerID: "p1", creature: "", want: ErrInvalidCreature},
		{name: "anonymous", playerID: " ", creature: "fire", want: ErrPlayerRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartMatch(context.Background(), tt.playerID, tt.creature)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStartMatchReplacesPriorSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), pickWater, pickFire)

	first, err := svc.StartMatch(ctx, "p1", "fire")
	if err != nil {
		t.Fatalf("first StartMatch: %v", err)
	}
	second, err := svc.StartMatch(ctx, "p1", "earth")
	if err != nil {
		t.Fatalf("second StartMatch: %v", err)
	}
	if _, err := svc.GetState(ctx, "p1", first.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("first session err = %v, want %v", err, ErrNotFound)
	}
	got, err := svc.GetState(ctx, "p1", second.SessionID)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if got.PlayerCreature.Type != rules.Earth {
		t.Fatalf("player type = %s, want earth", got.PlayerCreature.Type)
	}
}

func TestStartMatchNeverMirrorsPlayer(t *testing.T) {
	svc, err := New(rules.Default(), memory.New(), WithRandom(random.New(99)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	for i := 0; i < 50; i++ {
		for _, ct := range rules.AllTypes {
			match, err := svc.StartMatch(context.Background(), "p1", string(ct))
			if err != nil {
				t.Fatalf("StartMatch: %v", err)
			}
			if match.State.AICreature.Type == ct {
				t.Fatalf("ai mirrors player type %s", ct)
			}
		}
	}
}

func TestSubmitActionFirstExchange(t *testing.T) {
	tests := []struct {
		name       string
		player     string
		pick       int
		wantPlayer int
		wantAI     int
	}{
		{name: "water against fire", player: "water", pick: pickFire, wantPlayer: 90, wantAI: 70},
		{name: "fire against water", player: "fire", pick: pickWater, wantPlayer: 70, wantAI: 90},
		{name: "fire against air", player: "fire", pick: pickAir, wantPlayer: 80, wantAI: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService(t, memory.New(), tt.pick)
			match, err := svc.StartMatch(ctx, "p1", tt.player)
			if err != nil {
				t.Fatalf("StartMatch: %v", err)
			}
			view, err := svc.SubmitAction(ctx, "p1", match.SessionID)
			if err != nil {
				t.Fatalf("SubmitAction: %v", err)
			}
			if view.PlayerCreature.HP != tt.wantPlayer || view.AICreature.HP != tt.wantAI {
				t.Fatalf("hp = player %d ai %d, want %d/%d", view.PlayerCreature.HP, view.AICreature.HP, tt.wantPlayer, tt.wantAI)
			}
			if view.GameOver || !view.YourTurn || len(view.Log) != 2 {
				t.Fatalf("view = %+v, want running with 2 log lines", view)
			}
		})
	}
}

func TestSubmitActionPlaysToVictory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store, pickFire)
	match, err := svc.StartMatch(ctx, "p1", "air")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	var view GameStateView
	for i := 1; i <= 5; i++ {
		view, err = svc.SubmitAction(ctx, "p1", match.SessionID)
		if err != nil {
			t.Fatalf("action %d: %v", i, err)
		}
		if i < 5 && view.GameOver {
			t.Fatalf("game over after %d actions", i)
		}
	}
	if !view.GameOver || view.Winner == nil || *view.Winner != combat.SidePlayer {
		t.Fatalf("final view = %+v, want player win", view)
	}
	if view.YourTurn {
		t.Fatal("your_turn should be false once the game is over")
	}
	if view.AICreature.HP != 0 || view.PlayerCreature.HP != 20 {
		t.Fatalf("hp = player %d ai %d, want 20/0", view.PlayerCreature.HP, view.AICreature.HP)
	}

	stored, err := store.GetSession(ctx, "p1", match.SessionID)
	if err != nil {
		t.Fatalf("get stored session: %v", err)
	}
	if stored.TurnHolder != "" || stored.Version != 6 {
		t.Fatalf("stored turn holder = %q version = %d, want empty/6", stored.TurnHolder, stored.Version)
	}
}

func TestSubmitActionClampsDisplayHP(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store, pickFire)
	match, err := svc.StartMatch(ctx, "p1", "water")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	var view GameStateView
	for !view.GameOver {
		view, err = svc.SubmitAction(ctx, "p1", match.SessionID)
		if err != nil {
			t.Fatalf("SubmitAction: %v", err)
		}
	}
	if view.AICreature.HP != 0 {
		t.Fatalf("view ai hp = %d, want 0", view.AICreature.HP)
	}
	stored, err := store.GetSession(ctx, "p1", match.SessionID)
	if err != nil {
		t.Fatalf("get stored session: %v", err)
	}
	if stored.State.AICreature.HP != -20 {
		t.Fatalf("stored ai hp = %d, want -20", stored.State.AICreature.HP)
	}
}

func TestSubmitActionAfterGameOverNeverMutates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store, pickWater)
	match, err := svc.StartMatch(ctx, "p1", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	var view GameStateView
	for !view.GameOver {
		view, err = svc.SubmitAction(ctx, "p1", match.SessionID)
		if err != nil {
			t.Fatalf("SubmitAction: %v", err)
		}
	}
	if *view.Winner != combat.SideAI {
		t.Fatalf("winner = %s, want ai", *view.Winner)
	}
	before, err := store.GetSession(ctx, "p1", match.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := svc.SubmitAction(ctx, "p1", match.SessionID)
		if !errors.Is(err, ErrGameOver) {
			t.Fatalf("err = %v, want %v", err, ErrGameOver)
		}
	}
	after, err := store.GetSession(ctx, "p1", match.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Version != before.Version || len(after.State.Log) != len(before.State.Log) {
		t.Fatalf("finished session mutated: version %d -> %d", before.Version, after.Version)
	}
}

func TestOtherPlayerGetsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), pickWater)
	match, err := svc.StartMatch(ctx, "owner", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	if _, err := svc.SubmitAction(ctx, "intruder", match.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SubmitAction err = %v, want %v", err, ErrNotFound)
	}
	if _, err := svc.GetState(ctx, "intruder", match.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetState err = %v, want %v", err, ErrNotFound)
	}
	if err := svc.AbandonMatch(ctx, "intruder", match.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AbandonMatch err = %v, want %v", err, ErrNotFound)
	}
	view, err := svc.GetState(ctx, "owner", match.SessionID)
	if err != nil {
		t.Fatalf("owner GetState: %v", err)
	}
	if len(view.Log) != 0 {
		t.Fatalf("owner state changed: %+v", view)
	}
}

func TestNotFoundMessageHidesOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), pickWater)
	match, err := svc.StartMatch(ctx, "owner", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	_, foreign := svc.GetState(ctx, "intruder", match.SessionID)
	_, missing := svc.GetState(ctx, "intruder", "no-such-session")
	if foreign.Error() != missing.Error() || apperrors.CodeOf(foreign) != apperrors.CodeOf(missing) {
		t.Fatalf("foreign %q and missing %q differ", foreign, missing)
	}
}

func TestSubmitActionNotYourTurn(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store)

	sess, err := session.New("s1", "p1", combat.GameState{
		PlayerCreature: combat.Creature{Type: rules.Fire, HP: 100},
		AICreature:     combat.Creature{Type: rules.Air, HP: 100},
		Log:            []string{},
	}, fixedNow)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.TurnHolder = "someone-else"
	if err := store.ReplaceSession(ctx, sess); err != nil {
		t.Fatalf("replace session: %v", err)
	}

	if _, err := svc.SubmitAction(ctx, "p1", "s1"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("err = %v, want %v", err, ErrNotYourTurn)
	}
	view, err := svc.GetState(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if view.YourTurn {
		t.Fatal("your_turn = true, want false")
	}
}

type conflictStore struct {
	storage.SessionStore
}

func (conflictStore) UpdateSession(context.Context, session.Session, int64) error {
	return storage.ErrConflict
}

func TestSubmitActionSurfacesConflict(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, conflictStore{SessionStore: memory.New()}, pickWater)
	match, err := svc.StartMatch(ctx, "p1", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	_, err = svc.SubmitAction(ctx, "p1", match.SessionID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want %v", err, ErrConflict)
	}
	if !apperrors.CodeOf(err).Retryable() {
		t.Fatal("conflict should be retryable")
	}
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatal("conflict should wrap the storage cause")
	}
}

func TestConcurrentActionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(t, store, pickFire)
	match, err := svc.StartMatch(ctx, "p1", "air")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		gameOvers int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAction(ctx, "p1", match.SessionID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrGameOver):
				gameOvers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 5 || gameOvers != attempts-5 {
		t.Fatalf("successes = %d game overs = %d, want 5/%d", successes, gameOvers, attempts-5)
	}
	view, err := svc.GetState(ctx, "p1", match.SessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if len(view.Log) != 10 {
		t.Fatalf("log length = %d, want 10", len(view.Log))
	}
	if svc.locks.size() != 0 {
		t.Fatalf("lock entries leaked: %d", svc.locks.size())
	}
}

func TestAbandonMatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), pickWater)
	match, err := svc.StartMatch(ctx, "p1", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if err := svc.AbandonMatch(ctx, "p1", match.SessionID); err != nil {
		t.Fatalf("AbandonMatch: %v", err)
	}
	if _, err := svc.GetState(ctx, "p1", match.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrNotFound)
	}
	if err := svc.AbandonMatch(ctx, "p1", match.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second abandon err = %v, want %v", err, ErrNotFound)
	}
}

func TestGameStateViewJSON(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.New(), pickWater)
	match, err := svc.StartMatch(ctx, "p1", "fire")
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	data, err := json.Marshal(match)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		GameID    string         `json:"game_id"`
		GameState map[string]any `json:"game_state"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.GameID != match.SessionID {
		t.Fatalf("game_id = %q, want %q", decoded.GameID, match.SessionID)
	}
	for _, key := range []string{"player_creature", "ai_creature", "log", "game_over", "winner", "your_turn"} {
		if _, ok := decoded.GameState[key]; !ok {
			t.Fatalf("game_state missing %q: %s", key, data)
		}
	}
	if decoded.GameState["winner"] != nil {
		t.Fatalf("winner = %v, want null", decoded.GameState["winner"])
	}
	if log, ok := decoded.GameState["log"].([]any); !ok || len(log) != 0 {
		t.Fatalf("log = %v, want empty array", decoded.GameState["log"])
	}
}
