// Package mcp parses MCP command flags and serves the arena tools on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/elemental-arena/internal/platform/cmd"
	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	"github.com/louisbranch/elemental-arena/internal/services/arena/app"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"github.com/louisbranch/elemental-arena/internal/services/arena/mcpserver"
	"github.com/louisbranch/elemental-arena/internal/services/arena/service"
	"go.uber.org/zap"
)

// Config holds MCP command configuration.
type Config struct {
	Storage   string `env:"STORAGE"       envDefault:"sqlite"`
	DBPath    string `env:"DB_PATH"       envDefault:"data/arena.db"`
	RulesPath string `env:"RULES_PATH"`
	PlayerID  string `env:"MCP_PLAYER_ID" envDefault:"mcp-agent"`
	LogLevel  string `env:"LOG_LEVEL"     envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"    envDefault:"json"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: sqlite, bbolt or memory")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Database file path")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Rules table YAML file (empty uses the built-in table)")
	fs.StringVar(&cfg.PlayerID, "player-id", cfg.PlayerID, "Player the MCP tools act as")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.PlayerID = strings.TrimSpace(cfg.PlayerID)
	if cfg.PlayerID == "" {
		return Config{}, fmt.Errorf("player id is required")
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter. Logs go to stderr; stdout carries
// the protocol.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceMCP, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceMCP, options, func(ctx context.Context) error {
		server, closeStore, err := newServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		return server.Serve(ctx)
	})
}

func newServer(ctx context.Context, cfg Config, logger *zap.Logger) (*mcpserver.Server, func(), error) {
	table, err := rules.LoadFile(cfg.RulesPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := app.OpenStore(ctx, cfg.Storage, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Error("close arena store", zap.Error(err))
		}
	}
	arena, err := service.New(table, store, service.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	server, err := mcpserver.New(arena, cfg.PlayerID, logger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return server, closeStore, nil
}
