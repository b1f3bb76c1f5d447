package service

import (
	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/combat"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
)

// Errors returned by Service. Match them with errors.Is; matching is by code.
var (
	ErrInvalidCreature = rules.ErrInvalidCreature
	ErrNotFound        = apperrors.New(apperrors.CodeNotFound, "Game not found or not authorized")
	ErrGameOver        = combat.ErrGameOver
	ErrNotYourTurn     = apperrors.New(apperrors.CodeNotYourTurn, "It's not your turn")
	ErrConflict        = apperrors.New(apperrors.CodeConflict, "Game was updated by another request, try again")
	ErrPlayerRequired  = apperrors.New(apperrors.CodeUnauthenticated, "Not logged in")
)
