package web

import (
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/requestctx"
	"go.uber.org/zap"
)

const registeredMessage = "Registration successful! Please log in."

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(arenaPage(playerOf(r).Username, h.arena.Rules().Types())).ServeHTTP(w, r)
}

func (h *handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestctx.PlayerFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	params := authPageParams{}
	if r.URL.Query().Get("registered") == "1" {
		params.Message = registeredMessage
	}
	templ.Handler(loginPage(params)).ServeHTTP(w, r)
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		templ.Handler(loginPage(authPageParams{Error: "Invalid form submission"}), templ.WithStatus(http.StatusBadRequest)).ServeHTTP(w, r)
		return
	}
	account, err := h.accounts.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.renderAuthError(w, r, loginPage, err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(requestctx.Player{ID: account.ID, Username: account.Username})
	if err != nil {
		h.renderAuthError(w, r, loginPage, err)
		return
	}
	h.setSessionCookie(w, token, expiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	templ.Handler(registerPage(authPageParams{})).ServeHTTP(w, r)
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		templ.Handler(registerPage(authPageParams{Error: "Invalid form submission"}), templ.WithStatus(http.StatusBadRequest)).ServeHTTP(w, r)
		return
	}
	if _, err := h.accounts.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password")); err != nil {
		h.renderAuthError(w, r, registerPage, err)
		return
	}
	http.Redirect(w, r, "/login?"+url.Values{"registered": {"1"}}.Encode(), http.StatusSeeOther)
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *handler) renderAuthError(w http.ResponseWriter, r *http.Request, page func(authPageParams) templ.Component, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		h.logger.Error("auth request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	message := apperrors.MessageOf(err, "Something went wrong, please try again.")
	templ.Handler(page(authPageParams{Error: message}), templ.WithStatus(code.HTTPStatus())).ServeHTTP(w, r)
}
