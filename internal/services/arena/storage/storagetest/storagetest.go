// Package storagetest is a conformance suite shared by every arena storage
// backend.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/session"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
)

// Factory opens an empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run exercises the session and account contracts against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		run  func(t *testing.T, store storage.Store)
	}{
		{"session round trip", testSessionRoundTrip},
		{"session ownership", testSessionOwnership},
		{"replace keeps one session per player", testReplaceKeepsOneSession},
		{"replace leaves other players alone", testReplaceIsolatesPlayers},
		{"update compare and swap", testUpdateCompareAndSwap},
		{"update missing session", testUpdateMissingSession},
		{"delete sessions", testDeleteSessions},
		{"returned sessions are copies", testReturnedSessionsAreCopies},
		{"account round trip", testAccountRoundTrip},
		{"account uniqueness", testAccountUniqueness},
		{"cancelled context", testCancelledContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { _ = store.Close() })
			tt.run(t, store)
		})
	}
}

var baseTime = time.Date(2026, 2, 3, 4, 5, 6, 7_000_000, time.UTC)

// NewSession builds a valid running session for tests.
func NewSession(t *testing.T, id, playerID string) session.Session {
	t.Helper()
	s, err := session.New(id, playerID, combat.GameState{
		PlayerCreature: combat.Creature{Type: rules.Water, HP: 100},
		AICreature:     combat.Creature{Type: rules.Fire, HP: 100},
		Log:            []string{},
	}, baseTime)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func finished(s session.Session) session.Session {
	winner := combat.SidePlayer
	next := s.State.Clone()
	next.AICreature.HP = -20
	next.GameOver = true
	next.Winner = &winner
	next.Log = append(next.Log, "Your Water attacks! AI's Fire takes 30 damage.", "AI's Fire has been defeated! You win!")
	return s.Advance(next, baseTime.Add(time.Minute))
}

func testSessionRoundTrip(t *testing.T, store storage.Store) {
	ctx := context.Background()
	want := finished(NewSession(t, "s1", "p1"))
	if err := store.ReplaceSession(ctx, want); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	got, err := store.GetSession(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	assertSessionEqual(t, got, want)
}

func testSessionOwnership(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.ReplaceSession(ctx, NewSession(t, "s1", "p1")); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	if _, err := store.GetSession(ctx, "p2", "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("other player err = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetSession(ctx, "p1", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown id err = %v, want %v", err, storage.ErrNotFound)
	}
}

func testReplaceKeepsOneSession(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.ReplaceSession(ctx, NewSession(t, "s1", "p1")); err != nil {
		t.Fatalf("replace first: %v", err)
	}
	if err := store.ReplaceSession(ctx, NewSession(t, "s2", "p1")); err != nil {
		t.Fatalf("replace second: %v", err)
	}
	if _, err := store.GetSession(ctx, "p1", "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("first session err = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetSession(ctx, "p1", "s2"); err != nil {
		t.Fatalf("second session: %v", err)
	}
}

func testReplaceIsolatesPlayers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.ReplaceSession(ctx, NewSession(t, "s1", "p1")); err != nil {
		t.Fatalf("replace p1: %v", err)
	}
	if err := store.ReplaceSession(ctx, NewSession(t, "s2", "p2")); err != nil {
		t.Fatalf("replace p2: %v", err)
	}
	if _, err := store.GetSession(ctx, "p1", "s1"); err != nil {
		t.Fatalf("p1 session: %v", err)
	}
	if err := store.DeleteSessions(ctx, "p2"); err != nil {
		t.Fatalf("delete p2: %v", err)
	}
	if _, err := store.GetSession(ctx, "p1", "s1"); err != nil {
		t.Fatalf("p1 session after p2 delete: %v", err)
	}
}

func testUpdateCompareAndSwap(t *testing.T, store storage.Store) {
	ctx := context.Background()
	initial := NewSession(t, "s1", "p1")
	if err := store.ReplaceSession(ctx, initial); err != nil {
		t.Fatalf("replace session: %v", err)
	}

	next := finished(initial)
	if err := store.UpdateSession(ctx, next, initial.Version); err != nil {
		t.Fatalf("update session: %v", err)
	}
	got, err := store.GetSession(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	assertSessionEqual(t, got, next)

	stale := initial.Advance(initial.State, baseTime.Add(2*time.Minute))
	if err := store.UpdateSession(ctx, stale, initial.Version); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("stale update err = %v, want %v", err, storage.ErrConflict)
	}
	got, err = store.GetSession(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("get session after conflict: %v", err)
	}
	assertSessionEqual(t, got, next)
}

func testUpdateMissingSession(t *testing.T, store storage.Store) {
	ctx := context.Background()
	s := NewSession(t, "s1", "p1")
	if err := store.UpdateSession(ctx, s.Advance(s.State, baseTime), s.Version); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing err = %v, want %v", err, storage.ErrNotFound)
	}

	if err := store.ReplaceSession(ctx, s); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	hijack := s.Advance(s.State, baseTime)
	hijack.PlayerID = "p2"
	hijack.TurnHolder = "p2"
	if err := store.UpdateSession(ctx, hijack, s.Version); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update by other player err = %v, want %v", err, storage.ErrNotFound)
	}
}

func testDeleteSessions(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.DeleteSessions(ctx, "p1"); err != nil {
		t.Fatalf("delete with nothing stored: %v", err)
	}
	if err := store.ReplaceSession(ctx, NewSession(t, "s1", "p1")); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	if err := store.DeleteSessions(ctx, "p1"); err != nil {
		t.Fatalf("delete sessions: %v", err)
	}
	if _, err := store.GetSession(ctx, "p1", "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want %v", err, storage.ErrNotFound)
	}
}

func testReturnedSessionsAreCopies(t *testing.T, store storage.Store) {
	ctx := context.Background()
	s := finished(NewSession(t, "s1", "p1"))
	if err := store.ReplaceSession(ctx, s); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	s.State.Log[0] = "tampered"

	got, err := store.GetSession(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.State.Log[0] == "tampered" {
		t.Fatal("store shares log with caller")
	}
	got.State.Log[0] = "tampered again"
	again, err := store.GetSession(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if again.State.Log[0] == "tampered again" {
		t.Fatal("store shares log with readers")
	}
}

func testAccountRoundTrip(t *testing.T, store storage.Store) {
	ctx := context.Background()
	want := storage.Account{ID: "a1", Username: "ember", PasswordHash: "$2a$10$hash", CreatedAt: baseTime}
	if err := store.PutAccount(ctx, want); err != nil {
		t.Fatalf("put account: %v", err)
	}
	byID, err := store.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	byName, err := store.GetAccountByUsername(ctx, "ember")
	if err != nil {
		t.Fatalf("get account by username: %v", err)
	}
	for _, got := range []storage.Account{byID, byName} {
		if got.ID != want.ID || got.Username != want.Username || got.PasswordHash != want.PasswordHash || !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("account = %+v, want %+v", got, want)
		}
	}
	if _, err := store.GetAccount(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing id err = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetAccountByUsername(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing username err = %v, want %v", err, storage.ErrNotFound)
	}
}

func testAccountUniqueness(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.PutAccount(ctx, storage.Account{ID: "a1", Username: "ember", PasswordHash: "h", CreatedAt: baseTime}); err != nil {
		t.Fatalf("put account: %v", err)
	}
	err := store.PutAccount(ctx, storage.Account{ID: "a2", Username: "ember", PasswordHash: "h", CreatedAt: baseTime})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate username err = %v, want %v", err, storage.ErrAlreadyExists)
	}
	err = store.PutAccount(ctx, storage.Account{ID: "a1", Username: "tide", PasswordHash: "h", CreatedAt: baseTime})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate id err = %v, want %v", err, storage.ErrAlreadyExists)
	}
	if _, err := store.GetAccountByUsername(ctx, "tide"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("rejected account was stored: %v", err)
	}
}

func testCancelledContext(t *testing.T, store storage.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.ReplaceSession(ctx, NewSession(t, "s1", "p1")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := store.GetSession(ctx, "p1", "s1"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func assertSessionEqual(t *testing.T, got, want session.Session) {
	t.Helper()
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
	}
	got.CreatedAt, got.UpdatedAt = want.CreatedAt, want.UpdatedAt
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
}
