package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"

	"github.com/rs/zerolog"
)

// csvRepository implements InventoryRepository over a single CSV file.
// Every write rewrites the whole file through a temporary file and rename.
type csvRepository struct {
	path   string
	logger zerolog.Logger
}

// NewCSVRepository creates a file-backed inventory repository.
func NewCSVRepository(path string, logger zerolog.Logger) InventoryRepository {
	return &csvRepository{
		path:   path,
		logger: logger.With().Str("repository", "csv").Str("path", path).Logger(),
	}
}

// LoadAll reads and decodes the whole file.
func (r *csvRepository) LoadAll(ctx context.Context) ([]model.InventoryRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read inventory file")
		return nil, unavailable(err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.InventoryRecord{}, nil
	}

	records, err := inventorycsv.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to decode inventory file")
		return nil, fmt.Errorf("failed to decode inventory file: %w", err)
	}

	r.logger.Debug().Int("count", len(records)).Msg("loaded inventory records")
	return records, nil
}

// Append reads the file, adds the record and writes everything back.
// A missing file starts an empty inventory.
func (r *csvRepository) Append(ctx context.Context, record model.InventoryRecord) error {
	records, err := r.loadForWrite()
	if err != nil {
		return err
	}

	records = append(records, record)
	if err := r.writeAll(records); err != nil {
		return err
	}

	r.logger.Info().
		Str("product", record.Product).
		Str("store_id", string(record.StoreID)).
		Int("count", len(records)).
		Msg("inventory record appended")
	return nil
}

// DeleteMatching rewrites the file without the matching records.
func (r *csvRepository) DeleteMatching(ctx context.Context, key model.IdentityKey) (int, error) {
	records, err := r.loadForWrite()
	if err != nil {
		return 0, err
	}

	kept := records[:0:0]
	for _, rec := range records {
		if !key.Matches(rec) {
			kept = append(kept, rec)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		r.logger.Debug().Str("product", key.Product).Msg("no inventory records matched delete")
		return 0, nil
	}

	if err := r.writeAll(kept); err != nil {
		return 0, err
	}

	r.logger.Info().
		Str("product", key.Product).
		Str("store_id", string(key.StoreID)).
		Int("removed", removed).
		Msg("inventory records deleted")
	return removed, nil
}

func (r *csvRepository) loadForWrite() ([]model.InventoryRecord, error) {
	records, err := r.LoadAll(context.Background())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.InventoryRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

// writeAll replaces the file contents. The rename is atomic on POSIX
// filesystems, so a crash leaves either the old or the new file.
func (r *csvRepository) writeAll(records []model.InventoryRecord) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.logger.Error().Err(err).Msg("failed to create inventory directory")
		return unavailable(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create temporary inventory file")
		return unavailable(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := inventorycsv.Encode(tmp, records); err != nil {
		tmp.Close()
		r.logger.Error().Err(err).Msg("failed to encode inventory file")
		return fmt.Errorf("failed to write inventory file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return unavailable(err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable(err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		r.logger.Error().Err(err).Msg("failed to replace inventory file")
		return unavailable(err)
	}

	return nil
}
