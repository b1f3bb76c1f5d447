package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
)

const maxRequestBody = 1 << 12

type startGameRequest struct {
	CreatureType string `json:"creature_type"`
}

type startGameResponse struct {
	Success   bool                  `json:"success"`
	GameID    string                `json:"game_id"`
	GameState service.GameStateView `json:"game_state"`
}

type gameStateResponse struct {
	Success   bool                  `json:"success"`
	GameState service.GameStateView `json:"game_state"`
}

func (h *handler) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", apperrors.CodeInvalidArgument)
		return
	}
	match, err := h.arena.StartMatch(r.Context(), playerOf(r).ID, req.CreatureType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startGameResponse{Success: true, GameID: match.SessionID, GameState: match.State})
}

func (h *handler) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	view, err := h.arena.GetState(r.Context(), playerOf(r).ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameStateResponse{Success: true, GameState: view})
}

func (h *handler) handlePerformAction(w http.ResponseWriter, r *http.Request) {
	view, err := h.arena.SubmitAction(r.Context(), playerOf(r).ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameStateResponse{Success: true, GameState: view})
}

func (h *handler) handleEndGame(w http.ResponseWriter, r *http.Request) {
	if err := h.arena.AbandonMatch(r.Context(), playerOf(r).ID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.arena.Rules())
}
