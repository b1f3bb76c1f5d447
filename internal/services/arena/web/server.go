// Package web serves the browser client of the arena: login pages, the JSON
// game API, the live websocket channel and static assets.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"github.com/louisbranch/elemental-arena/internal/services/arena/web/static"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Arena is the game service used by the handlers.
type Arena interface {
	StartMatch(ctx context.Context, playerID, creatureType string) (service.Match, error)
	GetState(ctx context.Context, playerID, sessionID string) (service.GameStateView, error)
	SubmitAction(ctx context.Context, playerID, sessionID string) (service.GameStateView, error)
	AbandonMatch(ctx context.Context, playerID, sessionID string) error
	Rules() rules.Table
}

// Accounts registers and authenticates players.
type Accounts interface {
	Register(ctx context.Context, username, password string) (storage.Account, error)
	Authenticate(ctx context.Context, username, password string) (storage.Account, error)
}

// Config defines the inputs for the web handler.
type Config struct {
	Arena    Arena
	Accounts Accounts
	Tokens   *Tokens
	Logger   *zap.Logger
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
}

type handler struct {
	arena         Arena
	accounts      Accounts
	tokens        *Tokens
	logger        *zap.Logger
	secureCookies bool
}

// NewHandler assembles the routes and wraps them with tracing.
func NewHandler(config Config) (http.Handler, error) {
	if config.Arena == nil {
		return nil, fmt.Errorf("arena service is required")
	}
	if config.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if config.Tokens == nil {
		return nil, fmt.Errorf("session tokens are required")
	}
	h := &handler{
		arena:         config.Arena,
		accounts:      config.Accounts,
		tokens:        config.Tokens,
		logger:        logging.OrNop(config.Logger),
		secureCookies: config.SecureCookies,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /{$}", h.requirePage(h.handleIndex))
	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /register", h.handleRegisterPage)
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("GET /logout", h.handleLogout)

	mux.HandleFunc("GET /rules", h.handleRules)
	mux.HandleFunc("POST /start_game", h.requireJSON(h.handleStartGame))
	mux.HandleFunc("GET /get_game_state/{id}", h.requireJSON(h.handleGetGameState))
	mux.HandleFunc("POST /perform_action/{id}", h.requireJSON(h.handlePerformAction))
	mux.HandleFunc("POST /end_game/{id}", h.requireJSON(h.handleEndGame))
	mux.HandleFunc("GET /ws/{id}", h.requireJSON(h.handleLive))

	return otelhttp.NewHandler(h.withPlayer(mux), "arena.web"), nil
}
