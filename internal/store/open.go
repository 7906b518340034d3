package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
	Logger  *slog.Logger
}

// Open returns a Store for cfg.Backend.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.Logger), nil
	case BackendBadger:
		return OpenBadger(BadgerConfig{
			Path:       cfg.Path,
			SyncWrites: true,
			GCInterval: 5 * time.Minute,
			Logger:     cfg.Logger,
		})
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Path, cfg.Logger)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
