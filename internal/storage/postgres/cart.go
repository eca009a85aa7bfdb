package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/vendora/checkout/internal/domain/cart"
)

const (
	getActiveCartSQL = `SELECT id, customer_id, status, items, coupons, shipping, totals,
		last_activity, expires_at, created_at, updated_at
		FROM carts WHERE customer_id = $1 AND status = 'active'`

	// The partial unique index on (customer_id) WHERE status = 'active'
	// guarantees at most one active cart per customer across concurrent
	// upserts.
	saveCartSQL = `INSERT INTO carts (id, customer_id, status, items, coupons, shipping, totals,
		last_activity, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			items = EXCLUDED.items,
			coupons = EXCLUDED.coupons,
			shipping = EXCLUDED.shipping,
			totals = EXCLUDED.totals,
			last_activity = EXCLUDED.last_activity,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`

	sweepAbandonedSQL = `UPDATE carts SET status = 'abandoned', updated_at = now()
		WHERE status = 'active' AND last_activity < $1 AND jsonb_array_length(items) > 0`

	sweepExpiredSQL = `UPDATE carts SET status = 'expired', updated_at = now()
		WHERE status IN ('active', 'abandoned') AND expires_at < $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The line
// items, coupons, shipping selection and totals travel as JSONB documents.
type CartRepository struct {
	db Querier
}

// NewCartRepository returns a CartRepository that uses the given querier.
func NewCartRepository(db Querier) *CartRepository {
	return &CartRepository{db: db}
}

// GetActive returns the customer's active cart or cart.ErrNotFound.
func (r *CartRepository) GetActive(ctx context.Context, customerID string) (*cart.Cart, error) {
	rows, err := r.db.Query(ctx, getActiveCartSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting active cart for %q: %w", customerID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting active cart for %q: %w", customerID, err)
	}
	return &c, nil
}

// Save upserts the cart by id.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}
	coupons, err := json.Marshal(c.Coupons)
	if err != nil {
		return fmt.Errorf("marshaling cart coupons: %w", err)
	}
	shipping, err := json.Marshal(c.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling cart shipping: %w", err)
	}
	totals, err := json.Marshal(c.Totals)
	if err != nil {
		return fmt.Errorf("marshaling cart totals: %w", err)
	}

	_, err = r.db.Exec(ctx, saveCartSQL,
		c.ID, c.CustomerID, string(c.Status), items, coupons, shipping, totals,
		c.LastActivity, c.ExpiresAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving cart %q: %w", c.ID, err)
	}
	return nil
}

// SweepAbandoned marks active carts with items and no activity since the
// cutoff as abandoned. Returns the number of carts transitioned; already
// abandoned carts are untouched, so the sweep is idempotent.
func (r *CartRepository) SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, sweepAbandonedSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping abandoned carts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SweepExpired marks carts past their TTL as expired.
func (r *CartRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, sweepExpiredSQL, now)
	if err != nil {
		return 0, fmt.Errorf("sweeping expired carts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c        cart.Cart
		status   string
		items    []byte
		coupons  []byte
		shipping []byte
		totals   []byte
	)
	err := row.Scan(
		&c.ID, &c.CustomerID, &status, &items, &coupons, &shipping, &totals,
		&c.LastActivity, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	c.Status = cart.Status(status)

	if err := json.Unmarshal(items, &c.Items); err != nil {
		return c, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	if err := json.Unmarshal(coupons, &c.Coupons); err != nil {
		return c, fmt.Errorf("unmarshaling cart coupons: %w", err)
	}
	if err := json.Unmarshal(shipping, &c.Shipping); err != nil {
		return c, fmt.Errorf("unmarshaling cart shipping: %w", err)
	}
	if err := json.Unmarshal(totals, &c.Totals); err != nil {
		return c, fmt.Errorf("unmarshaling cart totals: %w", err)
	}
	return c, nil
}
