package dataset

import (
	"testing"

	"ecostock/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	records, err := Default()

	require.NoError(t, err)
	require.NotEmpty(t, records)

	for _, rec := range records {
		assert.NotEmpty(t, rec.Product)
		assert.True(t, rec.Category.Valid(), rec.Category)
		assert.True(t, rec.StoreID.Valid(), rec.StoreID)
		assert.True(t, rec.Weather.Valid(), rec.Weather)
		assert.GreaterOrEqual(t, rec.StockQty, 0)
	}
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	first, err := Default()
	require.NoError(t, err)
	first[0].Product = "changed"

	second, err := Default()
	require.NoError(t, err)
	assert.NotEqual(t, model.InventoryRecord{}, second[0])
	assert.NotEqual(t, "changed", second[0].Product)
}
