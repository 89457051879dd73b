package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockStatusFor_Partition(t *testing.T) {
	for threshold := 0; threshold <= 12; threshold++ {
		for q := 0; q <= 20; q++ {
			status := StockStatusFor(q, threshold)
			switch {
			case q == 0:
				assert.Equal(t, StockStatusOutOfStock, status, "q=%d t=%d", q, threshold)
			case q <= threshold:
				assert.Equal(t, StockStatusLowStock, status, "q=%d t=%d", q, threshold)
			default:
				assert.Equal(t, StockStatusInStock, status, "q=%d t=%d", q, threshold)
			}
		}
	}
}

func TestDrugOffer_StockStatusBoundaries(t *testing.T) {
	offer := &DrugOffer{LowStockThreshold: DefaultLowStockThreshold}

	offer.QuantityInStock = 0
	assert.Equal(t, StockStatusOutOfStock, offer.StockStatus())
	assert.False(t, offer.InStock())

	offer.QuantityInStock = 10
	assert.Equal(t, StockStatusLowStock, offer.StockStatus())

	offer.QuantityInStock = 11
	assert.Equal(t, StockStatusInStock, offer.StockStatus())
	assert.True(t, offer.InStock())
}

func TestDrugOffer_Normalize(t *testing.T) {
	offer := &DrugOffer{QuantityInStock: -3, LowStockThreshold: -1}

	assert.True(t, offer.Normalize())
	assert.Equal(t, 0, offer.QuantityInStock)
	assert.Equal(t, DefaultLowStockThreshold, offer.LowStockThreshold)

	assert.False(t, offer.Normalize())
}
