package repository

import (
	"context"
	"fmt"

	"ecostock/internal/config"
	"ecostock/internal/database"

	"github.com/rs/zerolog"
)

// Open builds the repository selected by cfg.Store.Backend. The returned
// close function releases backend resources and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (InventoryRepository, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case config.BackendCSV:
		logger.Info().Str("path", cfg.Store.CSVPath).Msg("using CSV inventory store")
		return NewCSVRepository(cfg.Store.CSVPath, logger), noop, nil

	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return NewPostgresRepository(pool, logger), pool.Close, nil

	case config.BackendS3:
		repo, err := NewS3Repository(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Key, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open s3 store: %w", err)
		}
		return repo, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
}
