package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	platformgrpc "github.com/louisbranch/elemental-arena/internal/platform/grpc"
	"github.com/louisbranch/elemental-arena/internal/platform/timeouts"
	"github.com/louisbranch/elemental-arena/internal/services/arena/account"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	"github.com/louisbranch/elemental-arena/internal/services/arena/web"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported by the arena.
const HealthService = "arena"

// Config configures the arena server.
type Config struct {
	// HTTPAddr is the browser listener address.
	HTTPAddr string
	// GRPCAddr is the health listener address; empty disables it.
	GRPCAddr  string
	Storage   string
	DBPath    string
	RulesPath string
	// SessionKey signs session cookies. Empty generates a per-process key,
	// which logs everyone out on restart.
	SessionKey    string
	SessionTTL    time.Duration
	SecureCookies bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *zap.Logger
}

// Server hosts the arena service.
type Server struct {
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        storage.Store
	logger       *zap.Logger
}

// New opens storage, loads the rules table and binds both listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)

	table, err := rules.LoadFile(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg.Storage, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	handler, err := newHandler(table, store, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}

	s := &Server{
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store:  store,
		logger: logger,
	}

	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		grpcListener, err := net.Listen("tcp", addr)
		if err != nil {
			_ = httpListener.Close()
			_ = store.Close()
			return nil, fmt.Errorf("listen on grpc addr %s: %w", addr, err)
		}
		s.grpcListener = grpcListener
		s.grpcServer, s.health = platformgrpc.NewHealthServer(HealthService)
	}
	return s, nil
}

func newHandler(table rules.Table, store storage.Store, cfg Config, logger *zap.Logger) (http.Handler, error) {
	arena, err := service.New(table, store, service.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	accounts, err := account.New(store, cfg.BcryptCost, logger)
	if err != nil {
		return nil, err
	}
	if cfg.SessionKey == "" {
		logger.Warn("no session key configured, sessions will not survive a restart")
	}
	tokens, err := web.NewTokens([]byte(cfg.SessionKey), cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return web.NewHandler(web.Config{
		Arena:         arena,
		Accounts:      accounts,
		Tokens:        tokens,
		Logger:        logger,
		SecureCookies: cfg.SecureCookies,
	})
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the health listener address, or empty when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves an arena server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the listeners and blocks until one fails or the context ends.
// The store is closed on return.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return fmt.Errorf("arena server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	s.logger.Info("arena HTTP server listening", zap.String("addr", s.Addr()))
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	grpcErr := make(chan error, 1)
	if s.grpcServer != nil {
		s.logger.Info("arena health server listening", zap.String("addr", s.GRPCAddr()))
		go func() {
			grpcErr <- s.grpcServer.Serve(s.grpcListener)
		}()
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		s.health.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	var err error
	select {
	case <-ctx.Done():
		s.logger.Info("arena server shutting down")
	case err = <-httpErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("serve HTTP: %w", err)
		}
	case err = <-grpcErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			err = fmt.Errorf("serve gRPC: %w", err)
		}
	}
	s.shutdown()
	return err
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func (s *Server) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("close arena store", zap.Error(err))
	}
}
