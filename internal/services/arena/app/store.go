package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/elemental-arena/internal/services/arena/storage"
	arenabbolt "github.com/louisbranch/elemental-arena/internal/services/arena/storage/bbolt"
	"github.com/louisbranch/elemental-arena/internal/services/arena/storage/memory"
	arenasqlite "github.com/louisbranch/elemental-arena/internal/services/arena/storage/sqlite"
)

// Storage backends accepted by OpenStore.
const (
	StorageSQLite = "sqlite"
	StorageBolt   = "bbolt"
	StorageMemory = "memory"
)

// OpenStore opens the named backend. File-backed stores create the parent
// directory of path when it is missing.
func OpenStore(ctx context.Context, backend, path string) (storage.Store, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == StorageMemory {
		return memory.New(), nil
	}
	if backend != StorageSQLite && backend != StorageBolt {
		return nil, fmt.Errorf("storage backend %q is not supported", backend)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "arena.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	if backend == StorageBolt {
		store, err := arenabbolt.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open arena bbolt store: %w", err)
		}
		return store, nil
	}
	store, err := arenasqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open arena sqlite store: %w", err)
	}
	return store, nil
}
