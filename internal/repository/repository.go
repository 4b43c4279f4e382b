package repository

import (
	"context"
	"fmt"

	"ecostock/internal/model"
)

// InventoryRepository defines the interface for inventory record storage.
// Implementations do not lock: concurrent writers race and the last full
// write wins.
type InventoryRepository interface {
	// LoadAll returns every stored record in storage order.
	// Returns model.ErrStoreUnavailable if the backing resource is missing
	// or unreadable.
	LoadAll(ctx context.Context) ([]model.InventoryRecord, error)

	// Append stores one record. Duplicates are allowed.
	Append(ctx context.Context, record model.InventoryRecord) error

	// DeleteMatching removes every record matching key and returns how many
	// were removed. Zero matches is not an error.
	DeleteMatching(ctx context.Context, key model.IdentityKey) (int, error)
}

// unavailable marks err as a store availability failure.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}
