package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecostock/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// postgresRepository implements the InventoryRepository interface using PostgreSQL.
type postgresRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresRepository creates a new PostgreSQL-backed inventory repository.
// The pool must already carry the inventory schema (see database.Migrate).
func NewPostgresRepository(pool *pgxpool.Pool, logger zerolog.Logger) InventoryRepository {
	return &postgresRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "postgres").Logger(),
	}
}

// LoadAll retrieves all records in insertion order.
func (r *postgresRepository) LoadAll(ctx context.Context) ([]model.InventoryRecord, error) {
	query := `
		SELECT product, category, stock_qty, weekly_sales, expiry_date, store_id, weather, holiday_flag
		FROM inventory_records
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query inventory records")
		return nil, unavailable(fmt.Errorf("failed to query inventory records: %w", err))
	}
	defer rows.Close()

	records := []model.InventoryRecord{}
	for rows.Next() {
		var (
			rec                      model.InventoryRecord
			category, store, weather string
		)
		err := rows.Scan(&rec.Product, &category, &rec.StockQty, &rec.WeeklySales,
			&rec.ExpiryDate, &store, &weather, &rec.HolidayFlag)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan inventory row")
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		rec.Category = model.Category(category)
		rec.StoreID = model.StoreID(store)
		rec.Weather = model.Weather(weather)
		rec.ExpiryDate = model.NormalizeDate(rec.ExpiryDate)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating inventory rows")
		return nil, unavailable(fmt.Errorf("error iterating inventory records: %w", err))
	}

	return records, nil
}

// Append inserts one record.
func (r *postgresRepository) Append(ctx context.Context, record model.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records
			(product, category, stock_qty, weekly_sales, expiry_date, store_id, weather, holiday_flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		record.Product,
		string(record.Category),
		record.StockQty,
		record.WeeklySales,
		model.NormalizeDate(record.ExpiryDate),
		string(record.StoreID),
		string(record.Weather),
		record.HolidayFlag,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product", record.Product).Msg("failed to insert inventory record")
		return writeError(fmt.Errorf("failed to insert inventory record: %w", err))
	}

	r.logger.Info().
		Str("product", record.Product).
		Str("store_id", string(record.StoreID)).
		Msg("inventory record appended")
	return nil
}

// DeleteMatching removes every row with the given identity.
func (r *postgresRepository) DeleteMatching(ctx context.Context, key model.IdentityKey) (int, error) {
	query := `
		DELETE FROM inventory_records
		WHERE product = $1 AND category = $2 AND store_id = $3 AND expiry_date = $4
	`

	tag, err := r.pool.Exec(ctx, query,
		key.Product,
		string(key.Category),
		string(key.StoreID),
		model.NormalizeDate(key.ExpiryDate),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product", key.Product).Msg("failed to delete inventory records")
		return 0, unavailable(fmt.Errorf("failed to delete inventory records: %w", err))
	}

	removed := int(tag.RowsAffected())
	r.logger.Info().
		Str("product", key.Product).
		Str("store_id", string(key.StoreID)).
		Int("removed", removed).
		Msg("inventory records deleted")
	return removed, nil
}

// writeError reports rows the database rejected as data errors. Anything
// else is treated as the store being unavailable.
func writeError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return unavailable(err)
	}

	// Class 22 is data exception, class 23 integrity constraint violation.
	if !strings.HasPrefix(pgErr.Code, "22") && !strings.HasPrefix(pgErr.Code, "23") {
		return unavailable(err)
	}

	field := pgErr.ColumnName
	if field == "" {
		field = pgErr.ConstraintName
	}
	if field == "" {
		field = "record"
	}
	return &model.DataError{Field: field, Value: pgErr.Detail, Err: err}
}
