package web

import (
	"net/http"
	"time"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/requestctx"
	"go.uber.org/zap"
)

// withPlayer attaches the player from a valid session cookie. Invalid or
// expired cookies are cleared and the request proceeds anonymously.
func (h *handler) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		player, err := h.tokens.Verify(cookie.Value)
		if err != nil {
			h.logger.Debug("session cookie rejected", zap.Error(err))
			h.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithPlayer(r.Context(), player)))
	})
}

func (h *handler) requireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestctx.PlayerFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "Not logged in", apperrors.CodeUnauthenticated)
			return
		}
		next(w, r)
	}
}

func (h *handler) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestctx.PlayerFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (h *handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func playerOf(r *http.Request) requestctx.Player {
	player, _ := requestctx.PlayerFromContext(r.Context())
	return player
}
