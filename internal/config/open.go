package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/thisme/internal/store"
	"github.com/roach88/thisme/internal/store/postgres"
	"github.com/roach88/thisme/internal/store/sqlite"
)

// Open returns the store for the configured backend. For SQLite the parent
// directory of the database file is created if missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, store.Wrap(store.KindConnectivity, "open", err)
			}
		}
		logger.Debug("opening database", "backend", cfg.Backend, "path", cfg.SQLite.Path)
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendPostgres:
		logger.Debug("opening database", "backend", cfg.Backend)
		s, err := postgres.Open(ctx, cfg.Postgres.DSN, postgres.Options{
			MaxConns: cfg.Postgres.MaxConns,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, store.Errorf(store.KindValidation, "open", "unknown backend %q", cfg.Backend)
	}
}

// String summarizes the backend without credentials.
func (c Config) String() string {
	switch c.Backend {
	case BackendSQLite:
		return fmt.Sprintf("sqlite:%s", c.SQLite.Path)
	case BackendPostgres:
		return "postgres"
	default:
		return string(c.Backend)
	}
}
