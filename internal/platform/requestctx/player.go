// Package requestctx carries the authenticated player through request contexts.
package requestctx

import (
	"context"
	"strings"
)

// Player identifies the authenticated caller of a request.
type Player struct {
	ID       string
	Username string
}

type playerContextKey struct{}

// WithPlayer stores the authenticated player in ctx.
func WithPlayer(ctx context.Context, player Player) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, playerContextKey{}, player)
}

// PlayerFromContext returns the player stored in ctx. ok is false when no
// player with a non-empty ID is present.
func PlayerFromContext(ctx context.Context) (Player, bool) {
	if ctx == nil {
		return Player{}, false
	}
	player, _ := ctx.Value(playerContextKey{}).(Player)
	if strings.TrimSpace(player.ID) == "" {
		return Player{}, false
	}
	return player, true
}
