// Package dataset bundles the default inventory used when no store is reachable.
package dataset

import (
	"bytes"
	_ "embed"
	"fmt"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"
)

//go:embed mock_inventory.csv
var mockInventory []byte

// Default returns a fresh copy of the bundled inventory.
func Default() ([]model.InventoryRecord, error) {
	records, err := inventorycsv.Decode(bytes.NewReader(mockInventory))
	if err != nil {
		return nil, fmt.Errorf("failed to decode bundled inventory: %w", err)
	}
	return records, nil
}

// Raw returns the bundled inventory as CSV text.
func Raw() []byte {
	return bytes.Clone(mockInventory)
}
