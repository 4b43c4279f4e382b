package database

import (
	"context"
	"fmt"
	"time"

	"ecostock/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema creates the inventory table. The serial id only preserves insertion
// order; it is never exposed.
const Schema = `
	CREATE TABLE IF NOT EXISTS inventory_records (
		id BIGSERIAL PRIMARY KEY,
		product TEXT NOT NULL,
		category TEXT NOT NULL,
		stock_qty INTEGER NOT NULL CHECK (stock_qty >= 0),
		weekly_sales DOUBLE PRECISION NOT NULL CHECK (weekly_sales >= 0),
		expiry_date DATE NOT NULL,
		store_id TEXT NOT NULL,
		weather TEXT NOT NULL,
		holiday_flag BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_inventory_records_identity
		ON inventory_records(product, category, store_id, expiry_date);
`

// NewPool creates a new PostgreSQL connection pool and makes sure the
// inventory schema exists.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Msg("connecting to inventory database")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Msg("inventory database ready")

	return pool, nil
}

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create inventory schema: %w", err)
	}
	return nil
}
