package web

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string, code apperrors.Code) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// errorPayload converts err to a response body and status. Errors without a
// domain code are reported as internal without leaking their text.
func errorPayload(err error) (int, errorResponse) {
	code := apperrors.CodeOf(err)
	return code.HTTPStatus(), errorResponse{
		Error: apperrors.MessageOf(err, "Internal server error"),
		Code:  code,
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := errorPayload(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, payload)
}
