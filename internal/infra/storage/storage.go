// Package storage builds the configured entity store and seeds demo data.
package storage

import (
	"context"
	"fmt"

	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-tracker-go/internal/infra/postgres"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-tracker-go/internal/infra/sqlite"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"go.uber.org/zap"
)

// Open returns the store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		logger.Info("using in-memory store")
		return memstore.New(), nil

	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return s, nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Info("using postgres store")
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
