package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ProductStatus enumerates catalog publication states.
type ProductStatus string

const (
	StatusPublished ProductStatus = "published"
	StatusDraft     ProductStatus = "draft"
	StatusArchived  ProductStatus = "archived"
)

// StockStatus is derived from quantity and threshold, never stored.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Product represents a catalog item offered by one seller.
type Product struct {
	ID                string
	SellerID          string
	Name              string
	Price             decimal.Decimal
	Status            ProductStatus
	Category          string
	TrackInventory    bool
	Quantity          int
	LowStockThreshold int
}

// StockStatus derives the stock state. Untracked products are always in
// stock regardless of the quantity field.
func (p Product) StockStatus() StockStatus {
	if !p.TrackInventory {
		return StockInStock
	}
	switch {
	case p.Quantity == 0:
		return StockOutOfStock
	case p.Quantity <= p.LowStockThreshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// Purchasable reports whether the product can be added to a cart at all.
func (p Product) Purchasable() bool {
	return p.Status == StatusPublished
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
