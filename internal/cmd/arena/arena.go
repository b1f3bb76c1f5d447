// Package arena parses arena command flags and starts the web server.
package arena

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/elemental-arena/internal/platform/cmd"
	"github.com/louisbranch/elemental-arena/internal/platform/logging"
	server "github.com/louisbranch/elemental-arena/internal/services/arena/app"
	"go.uber.org/zap"
)

// Config holds arena command configuration.
type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR"      envDefault:":8080"`
	GRPCPort      int           `env:"GRPC_PORT"      envDefault:"8082"`
	Storage       string        `env:"STORAGE"        envDefault:"sqlite"`
	DBPath        string        `env:"DB_PATH"        envDefault:"data/arena.db"`
	RulesPath     string        `env:"RULES_PATH"`
	SessionKey    string        `env:"SESSION_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL"    envDefault:"24h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	LogLevel      string        `env:"LOG_LEVEL"      envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT"     envDefault:"json"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC health port (0 disables)")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: sqlite, bbolt or memory")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Database file path")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Rules table YAML file (empty uses the built-in table)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.GRPCPort < 0 {
		return Config{}, fmt.Errorf("grpc port must not be negative")
	}
	return cfg, nil
}

// Run starts the arena server.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceArena, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceArena, options, func(ctx context.Context) error {
		return server.Run(ctx, serverConfig(cfg, logger))
	})
}

func serverConfig(cfg Config, logger *zap.Logger) server.Config {
	grpcAddr := ""
	if cfg.GRPCPort > 0 {
		grpcAddr = fmt.Sprintf(":%d", cfg.GRPCPort)
	}
	return server.Config{
		HTTPAddr:      cfg.HTTPAddr,
		GRPCAddr:      grpcAddr,
		Storage:       cfg.Storage,
		DBPath:        cfg.DBPath,
		RulesPath:     cfg.RulesPath,
		SessionKey:    cfg.SessionKey,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Logger:        logger,
	}
}
