package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_StockStatus(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    StockStatus
	}{
		{
			name:    "untracked is always in stock",
			product: Product{TrackInventory: false, Quantity: 0},
			want:    StockInStock,
		},
		{
			name:    "zero quantity is out of stock",
			product: Product{TrackInventory: true, Quantity: 0, LowStockThreshold: 5},
			want:    StockOutOfStock,
		},
		{
			name:    "at threshold is low stock",
			product: Product{TrackInventory: true, Quantity: 5, LowStockThreshold: 5},
			want:    StockLowStock,
		},
		{
			name:    "below threshold is low stock",
			product: Product{TrackInventory: true, Quantity: 1, LowStockThreshold: 5},
			want:    StockLowStock,
		},
		{
			name:    "above threshold is in stock",
			product: Product{TrackInventory: true, Quantity: 6, LowStockThreshold: 5},
			want:    StockInStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.StockStatus())
		})
	}
}

func TestProduct_Purchasable(t *testing.T) {
	assert.True(t, Product{Status: StatusPublished}.Purchasable())
	assert.False(t, Product{Status: StatusDraft}.Purchasable())
	assert.False(t, Product{Status: StatusArchived}.Purchasable())
}
