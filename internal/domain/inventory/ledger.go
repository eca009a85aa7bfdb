// Package inventory owns stock quantity adjustments. It is the only
// component that mutates catalog state as a side effect of checkout,
// cancellation, or return.
package inventory

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// Op is the direction of a stock adjustment.
type Op string

const (
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
)

// ErrUnknownProduct is returned when adjusting stock for an id the ledger
// does not track.
var ErrUnknownProduct = errors.New("unknown product")

// InsufficientStockError indicates a reservation asked for more units than
// are available. The reservation is rejected as a whole; no partial
// decrement is applied.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Reservation is one product/quantity pair to reserve or release.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Ledger adjusts per-product stock counters.
//
// Adjust clamps: subtracting below zero floors at zero instead of failing.
// Reserve is the checked path used at checkout: the decrement is a single
// atomic conditional update that fails with InsufficientStockError when
// demand exceeds stock. Callers must invoke Reserve exactly once per order
// at checkout and Release exactly once on cancellation or return; the
// ledger is not idempotent against duplicate calls.
type Ledger interface {
	Adjust(ctx context.Context, productID string, quantity int, op Op) (int, error)
	Reserve(ctx context.Context, items []Reservation) error
	Release(ctx context.Context, items []Reservation) error
}
