package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, seller_id, name, price, status, category, track_inventory, quantity, low_stock_threshold
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, seller_id, name, price, status, category, track_inventory, quantity, low_stock_threshold
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, seller_id, name, price, status, category, track_inventory, quantity, low_stock_threshold
		FROM products WHERE id = ANY($1)`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	db Querier
}

// NewProductRepository returns a ProductRepository that uses the given querier.
func NewProductRepository(db Querier) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p      catalog.Product
		price  decimal.Decimal
		status string
	)
	err := row.Scan(
		&p.ID, &p.SellerID, &p.Name, &price, &status,
		&p.Category, &p.TrackInventory, &p.Quantity, &p.LowStockThreshold,
	)
	p.Price = price
	p.Status = catalog.ProductStatus(status)
	return p, err
}
