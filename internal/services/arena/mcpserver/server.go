// Package mcpserver exposes the arena to MCP clients. Every tool call acts on
// behalf of the single player the server was started for.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Elemental Arena MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Arena is the game service the tools call into.
type Arena interface {
	StartMatch(ctx context.Context, playerID, creatureType string) (service.Match, error)
	GetState(ctx context.Context, playerID, sessionID string) (service.GameStateView, error)
	SubmitAction(ctx context.Context, playerID, sessionID string) (service.GameStateView, error)
	Rules() rules.Table
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New creates an MCP server whose tools act as playerID.
func New(arena Arena, playerID string, logger *zap.Logger) (*Server, error) {
	if arena == nil {
		return nil, fmt.Errorf("arena service is required")
	}
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	logger = logging.OrNop(logger)

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(mcpServer, arena, playerID, logger)

	return &Server{mcpServer: mcpServer, logger: logger}, nil
}

// Serve runs the MCP server on stdio until the client disconnects or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	s.logger.Info("mcp server starting")
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	s.logger.Info("mcp server stopped")
	return nil
}
