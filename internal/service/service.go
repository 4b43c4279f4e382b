package service

import (
	"context"

	"ecostock/internal/model"

	"github.com/google/uuid"
)

// InventoryService runs the demand and risk pipeline and edits the record store.
type InventoryService interface {
	// Run loads the records, fits the demand model on them, annotates every
	// record and returns the filtered view plus its at-risk subset.
	Run(ctx context.Context, req RunRequest) (*RunResult, error)

	// Add validates a record and appends it to the store.
	Add(ctx context.Context, record model.InventoryRecord) error

	// Delete removes every stored record matching key. Zero matches is not an error.
	Delete(ctx context.Context, key model.IdentityKey) (int, error)

	// Validate checks a record before it is stored or staged.
	Validate(record model.InventoryRecord) error
}

// SessionService stages manual entries that are fed into pipeline runs
// without being persisted.
type SessionService interface {
	// Create opens a new empty session.
	Create() uuid.UUID

	// Stage adds a record to the session and returns the number staged.
	Stage(id uuid.UUID, record model.InventoryRecord) (int, error)

	// Entries returns a copy of the staged records.
	Entries(id uuid.UUID) ([]model.InventoryRecord, error)

	// Discard drops the session.
	Discard(id uuid.UUID) error
}
