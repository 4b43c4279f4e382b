package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRepository_LoadAll_MissingFile(t *testing.T) {
	repo := NewCSVRepository(filepath.Join(t.TempDir(), "missing.csv"), zerolog.Nop())

	records, err := repo.LoadAll(context.Background())

	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCSVRepository_LoadAll_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	content := strings.Join(inventorycsv.Header, ",") + "\nMilk,Dairy,ten,1,2026-10-18,S01,Sunny,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	repo := NewCSVRepository(path, zerolog.Nop())
	records, err := repo.LoadAll(context.Background())

	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, model.ErrInvalidRecord))
	assert.False(t, errors.Is(err, model.ErrStoreUnavailable))
}

func TestCSVRepository_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inventory.csv")
	repo := NewCSVRepository(path, zerolog.Nop())
	ctx := context.Background()

	rec := testRecords()[1]
	require.NoError(t, repo.Append(ctx, rec))

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.InventoryRecord{rec}, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(inventorycsv.Header, ",")+"\n"))
}

func TestCSVRepository_AppendThenDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.csv")
	repo := NewCSVRepository(path, zerolog.Nop())
	ctx := context.Background()

	for _, rec := range testRecords() {
		require.NoError(t, repo.Append(ctx, rec))
	}

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRecords(), records)

	removed, err := repo.DeleteMatching(ctx, testRecords()[0].Key())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.InventoryRecord{testRecords()[1], testRecords()[3]}, records)

	removed, err = repo.DeleteMatching(ctx, testRecords()[0].Key())
	require.NoError(t, err)
	assert.Zero(t, removed)

	// No temporary files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inventory.csv", entries[0].Name())
}

func TestCSVRepository_DeleteOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	repo := NewCSVRepository(path, zerolog.Nop())

	removed, err := repo.DeleteMatching(context.Background(), testRecords()[0].Key())

	require.NoError(t, err)
	assert.Zero(t, removed)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestCSVRepository_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	repo := NewCSVRepository(path, zerolog.Nop())
	ctx := context.Background()

	records, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, repo.Append(ctx, testRecords()[0]))
	records, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
