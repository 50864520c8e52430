package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/config"
)

// Open builds the KV backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (KV, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		logger.Info("using in-memory snapshot store")
		return NewMemory(), nil
	case config.BackendRedis:
		return NewRedis(ctx, cfg.Redis, logger), nil
	case config.BackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return pg, nil
	case config.BackendSQLite:
		db, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
