package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/vendora/checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, order_number, customer_id, status, items, pricing,
		addresses, payment, timeline, returns,
		confirmed_at, shipped_at, delivered_at, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	getOrderSQL = `SELECT id, order_number, customer_id, status, items, pricing,
		addresses, payment, timeline, returns,
		confirmed_at, shipped_at, delivered_at, cancelled_at, created_at, updated_at
		FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders SET status = $2, items = $3, payment = $4, timeline = $5, returns = $6,
		confirmed_at = $7, shipped_at = $8, delivered_at = $9, cancelled_at = $10, updated_at = $11
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Orders
// are append-only at the row level: Update never touches the immutable
// snapshot columns (customer, pricing, addresses, order number).
type OrderRepository struct {
	db Querier
}

// NewOrderRepository returns an OrderRepository that uses the given querier.
func NewOrderRepository(db Querier) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := marshalOrderDocs(o)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, o.CustomerID, string(o.Status),
		doc.items, doc.pricing, doc.addresses, doc.payment, doc.timeline, doc.returns,
		o.ConfirmedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order by id, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// Update persists the mutable part of the order: status, item statuses,
// payment ledger, timeline, returns and lifecycle timestamps.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	doc, err := marshalOrderDocs(o)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), doc.items, doc.payment, doc.timeline, doc.returns,
		o.ConfirmedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

type orderDocs struct {
	items     []byte
	pricing   []byte
	addresses []byte
	payment   []byte
	timeline  []byte
	returns   []byte
}

func marshalOrderDocs(o *order.Order) (orderDocs, error) {
	var (
		doc orderDocs
		err error
	)
	if doc.items, err = json.Marshal(o.Items); err != nil {
		return doc, fmt.Errorf("marshaling order items: %w", err)
	}
	if doc.pricing, err = json.Marshal(o.Pricing); err != nil {
		return doc, fmt.Errorf("marshaling order pricing: %w", err)
	}
	if doc.addresses, err = json.Marshal(o.Addresses); err != nil {
		return doc, fmt.Errorf("marshaling order addresses: %w", err)
	}
	if doc.payment, err = json.Marshal(o.Payment); err != nil {
		return doc, fmt.Errorf("marshaling order payment: %w", err)
	}
	if doc.timeline, err = json.Marshal(o.Timeline); err != nil {
		return doc, fmt.Errorf("marshaling order timeline: %w", err)
	}
	if doc.returns, err = json.Marshal(o.Returns); err != nil {
		return doc, fmt.Errorf("marshaling order returns: %w", err)
	}
	return doc, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
		doc    orderDocs
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &status,
		&doc.items, &doc.pricing, &doc.addresses, &doc.payment, &doc.timeline, &doc.returns,
		&o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)

	for _, f := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"items", doc.items, &o.Items},
		{"pricing", doc.pricing, &o.Pricing},
		{"addresses", doc.addresses, &o.Addresses},
		{"payment", doc.payment, &o.Payment},
		{"timeline", doc.timeline, &o.Timeline},
		{"returns", doc.returns, &o.Returns},
	} {
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return o, fmt.Errorf("unmarshaling order %s: %w", f.name, err)
		}
	}
	return o, nil
}
