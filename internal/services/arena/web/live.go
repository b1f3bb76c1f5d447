package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/timeouts"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"go.uber.org/zap"
)

// Live channel actions sent by the client.
const (
	liveActionAttack = "attack"
	liveActionState  = "state"
)

type liveRequest struct {
	Action string `json:"action"`
}

// upgrader keeps gorilla's default same-origin check.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleLive serves one session over a websocket. The current state is sent
// on connect; each client message then gets exactly one reply.
func (h *handler) handleLive(w http.ResponseWriter, r *http.Request) {
	playerID := playerOf(r).ID
	sessionID := r.PathValue("id")

	initial, err := h.arena.GetState(r.Context(), playerID, sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBody)

	if err := writeLive(conn, gameStateResponse{Success: true, GameState: initial}); err != nil {
		return
	}

	ctx := r.Context()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(timeouts.WebsocketIdle)); err != nil {
			return
		}
		var req liveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !isTimeout(err) {
				h.logger.Debug("websocket read", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}

		var (
			view   service.GameStateView
			actErr error
		)
		switch req.Action {
		case liveActionAttack:
			view, actErr = h.arena.SubmitAction(ctx, playerID, sessionID)
		case liveActionState:
			view, actErr = h.arena.GetState(ctx, playerID, sessionID)
		default:
			actErr = apperrors.New(apperrors.CodeInvalidArgument, "Unknown action")
		}

		var reply any = gameStateResponse{Success: true, GameState: view}
		if actErr != nil {
			status, payload := errorPayload(actErr)
			if status >= http.StatusInternalServerError {
				h.logger.Error("websocket action failed", zap.String("session_id", sessionID), zap.Error(actErr))
			}
			reply = payload
		}
		if err := writeLive(conn, reply); err != nil {
			return
		}
	}
}

func writeLive(conn *websocket.Conn, payload any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeouts.WebsocketWrite)); err != nil {
		return err
	}
	return conn.WriteJSON(payload)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
