// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every variable read through ParseEnv, so struct tags
// stay short (`env:"HTTP_ADDR"` reads ELEMENTAL_ARENA_HTTP_ADDR).
const EnvPrefix = "ELEMENTAL_ARENA_"

// ParseEnv loads prefixed environment variables into target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
