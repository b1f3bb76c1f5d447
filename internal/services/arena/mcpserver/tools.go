package mcpserver

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
	"github.com/louisbranch/elemental-arena/internal/platform/timeouts"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func registerTools(mcpServer *mcp.Server, arena Arena, playerID string, logger *zap.Logger) {
	mcp.AddTool(mcpServer, StartMatchTool(), StartMatchHandler(arena, playerID, logger))
	mcp.AddTool(mcpServer, GetStateTool(), GetStateHandler(arena, playerID, logger))
	mcp.AddTool(mcpServer, AttackTool(), AttackHandler(arena, playerID, logger))
	mcp.AddTool(mcpServer, RulesTool(), RulesHandler(arena))
}

// StartMatchInput represents the MCP tool input for starting a match.
type StartMatchInput struct {
	CreatureType string `json:"creature_type" jsonschema:"creature to play: fire, water, earth or air"`
}

// StartMatchResult represents the MCP tool output for starting a match.
type StartMatchResult struct {
	SessionID string                `json:"session_id" jsonschema:"identifier of the new match"`
	GameState service.GameStateView `json:"game_state" jsonschema:"state of the new match"`
}

// SessionInput identifies the match a tool acts on.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"match identifier returned by arena_start_match"`
}

// StateResult wraps the player's view of a match.
type StateResult struct {
	GameState service.GameStateView `json:"game_state" jsonschema:"player's view of the match"`
}

// RulesInput is the empty input of the rules tool.
type RulesInput struct{}

// RulesResult lists the creature profiles of the active rules table.
type RulesResult struct {
	Creatures map[string]rules.Profile `json:"creatures" jsonschema:"creature profiles keyed by type"`
}

// StartMatchTool defines the MCP tool schema for starting a match.
func StartMatchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "arena_start_match",
		Description: "Starts a new match with the chosen creature against a random AI creature. Replaces any match already in progress.",
	}
}

// StartMatchHandler executes a start match request.
func StartMatchHandler(arena Arena, playerID string, logger *zap.Logger) mcp.ToolHandlerFor[StartMatchInput, StartMatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StartMatchInput) (*mcp.CallToolResult, StartMatchResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
		defer cancel()

		match, err := arena.StartMatch(runCtx, playerID, input.CreatureType)
		if err != nil {
			return nil, StartMatchResult{}, toolError(logger, "arena_start_match", err)
		}
		return nil, StartMatchResult{SessionID: match.SessionID, GameState: match.State}, nil
	}
}

// GetStateTool defines the MCP tool schema for reading a match.
func GetStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "arena_get_state",
		Description: "Returns the current state of a match owned by this player.",
	}
}

// GetStateHandler executes a state read.
func GetStateHandler(arena Arena, playerID string, logger *zap.Logger) mcp.ToolHandlerFor[SessionInput, StateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, StateResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
		defer cancel()

		view, err := arena.GetState(runCtx, playerID, input.SessionID)
		if err != nil {
			return nil, StateResult{}, toolError(logger, "arena_get_state", err)
		}
		return nil, StateResult{GameState: view}, nil
	}
}

// AttackTool defines the MCP tool schema for playing a round.
func AttackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "arena_attack",
		Description: "Attacks with the player's creature. The AI answers in the same round unless its creature is defeated.",
	}
}

// AttackHandler executes one round of combat.
func AttackHandler(arena Arena, playerID string, logger *zap.Logger) mcp.ToolHandlerFor[SessionInput, StateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, StateResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
		defer cancel()

		view, err := arena.SubmitAction(runCtx, playerID, input.SessionID)
		if err != nil {
			return nil, StateResult{}, toolError(logger, "arena_attack", err)
		}
		return nil, StateResult{GameState: view}, nil
	}
}

// RulesTool defines the MCP tool schema for listing the rules table.
func RulesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "arena_rules",
		Description: "Lists hp, attack, weakness and strength for every creature type.",
	}
}

// RulesHandler returns the active rules table.
func RulesHandler(arena Arena) mcp.ToolHandlerFor[RulesInput, RulesResult] {
	return func(context.Context, *mcp.CallToolRequest, RulesInput) (*mcp.CallToolResult, RulesResult, error) {
		table := arena.Rules()
		creatures := make(map[string]rules.Profile, len(table.Types()))
		for _, ct := range table.Types() {
			profile, _ := table.Profile(ct)
			creatures[ct.String()] = profile
		}
		return nil, RulesResult{Creatures: creatures}, nil
	}
}

// toolError renders a domain error as "CODE: message". Errors without a code
// are logged and reported without their text.
func toolError(logger *zap.Logger, tool string, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		logger.Error("tool call failed", zap.String("tool", tool), zap.Error(err))
	} else {
		logger.Debug("tool call rejected", zap.String("tool", tool), zap.String("code", string(code)))
	}
	return fmt.Errorf("%s: %s", code, apperrors.MessageOf(err, "Internal server error"))
}
