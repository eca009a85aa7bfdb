package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/vendora/checkout/internal/domain/inventory"
)

const (
	adjustAddSQL = `UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 RETURNING quantity`

	adjustSubtractSQL = `UPDATE products SET quantity = GREATEST(quantity - $2, 0), updated_at = now()
		WHERE id = $1 RETURNING quantity`

	// The quantity check and the decrement are one statement, so two
	// concurrent checkouts cannot both pass the check: the second blocks on
	// the row lock and re-evaluates against the decremented quantity.
	reserveStockSQL = `UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND track_inventory AND quantity >= $2`

	releaseStockSQL = `UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND track_inventory`

	getStockSQL = `SELECT track_inventory, quantity FROM products WHERE id = $1`
)

var _ inventory.Ledger = (*InventoryLedger)(nil)

// InventoryLedger implements inventory.Ledger on the products table.
// Reserve's all-or-nothing guarantee holds when the ledger runs inside a
// unit of work; the standalone pool-backed ledger only offers per-item
// atomicity.
type InventoryLedger struct {
	db Querier
}

// NewInventoryLedger returns an InventoryLedger that uses the given querier.
func NewInventoryLedger(db Querier) *InventoryLedger {
	return &InventoryLedger{db: db}
}

// Adjust applies a clamped stock adjustment and returns the new quantity.
func (l *InventoryLedger) Adjust(ctx context.Context, productID string, quantity int, op inventory.Op) (int, error) {
	sql := adjustAddSQL
	if op == inventory.OpSubtract {
		sql = adjustSubtractSQL
	}

	var updated int
	err := l.db.QueryRow(ctx, sql, productID, quantity).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, inventory.ErrUnknownProduct
		}
		return 0, fmt.Errorf("adjusting stock for %q: %w", productID, err)
	}
	return updated, nil
}

// Reserve conditionally decrements stock for every item. A failed condition
// is diagnosed with a follow-up read: untracked and unknown products are
// skipped, a tracked product short on stock fails the whole reservation.
func (l *InventoryLedger) Reserve(ctx context.Context, items []inventory.Reservation) error {
	for _, it := range items {
		tag, err := l.db.Exec(ctx, reserveStockSQL, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("reserving stock for %q: %w", it.ProductID, err)
		}
		if tag.RowsAffected() > 0 {
			continue
		}

		var (
			tracked   bool
			available int
		)
		err = l.db.QueryRow(ctx, getStockSQL, it.ProductID).Scan(&tracked, &available)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !tracked) {
			continue
		}
		if err != nil {
			return fmt.Errorf("checking stock for %q: %w", it.ProductID, err)
		}

		return &inventory.InsufficientStockError{
			ProductID: it.ProductID,
			Requested: it.Quantity,
			Available: available,
		}
	}
	return nil
}

// Release adds reserved quantities back to tracked products.
func (l *InventoryLedger) Release(ctx context.Context, items []inventory.Reservation) error {
	for _, it := range items {
		_, err := l.db.Exec(ctx, releaseStockSQL, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("releasing stock for %q: %w", it.ProductID, err)
		}
	}
	return nil
}
