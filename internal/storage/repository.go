// Package storage persists board snapshots to a SQL backend.
//
// Backends register themselves under a kind string; the caller picks one via
// Config. Persistence is optional everywhere in this repo: the commands and
// the dashboard run fine with no repository configured.
package storage

import (
	"context"
	"fmt"
	"sync"

	"ratewatch/internal/rates"
)

// Config is the minimal configuration needed to open a snapshot repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind string `yaml:"kind" json:"kind"`
	DSN  string `yaml:"dsn" json:"dsn"`
}

// Repository is a backend-agnostic store for board snapshots.
//
// IMPORTANT: This interface is intentionally minimal. Each backend implements
// idempotent inserts in its own idiomatic way (Postgres ON CONFLICT, SQLite
// OR IGNORE, MSSQL NOT EXISTS).
type Repository interface {
	// Close releases backend resources. Treat as "call once" at shutdown.
	Close()

	// EnsureSchema creates the snapshot table if needed. Idempotent.
	EnsureSchema(ctx context.Context) error

	// InsertSnapshot stores every row of the snapshot, tagged with the fetch
	// timestamp and a row hash. Re-inserting the same snapshot is a no-op and
	// returns 0 affected rows.
	InsertSnapshot(ctx context.Context, snap rates.Snapshot) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering the
// same kind twice panics; that fails fast instead of allowing ambiguous
// backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
