package inventory

import (
	"context"
	"sync"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-memory Ledger for tests and local development.
// Untracked products are represented by simply not seeding them; Reserve
// skips ids the ledger does not know about.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

// NewMemoryLedger creates a MemoryLedger seeded with the given quantities.
func NewMemoryLedger(stock map[string]int) *MemoryLedger {
	s := make(map[string]int, len(stock))
	for id, qty := range stock {
		s[id] = qty
	}
	return &MemoryLedger{stock: s}
}

// Quantity returns the current stock for a product.
func (l *MemoryLedger) Quantity(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[productID]
}

// Adjust applies a clamped add or subtract and returns the new quantity.
func (l *MemoryLedger) Adjust(_ context.Context, productID string, quantity int, op Op) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.stock[productID]
	if !ok {
		return 0, ErrUnknownProduct
	}

	switch op {
	case OpAdd:
		current += quantity
	case OpSubtract:
		current -= quantity
		if current < 0 {
			current = 0
		}
	}

	l.stock[productID] = current
	return current, nil
}

// Reserve decrements every reservation, or none of them. The check and the
// decrement happen under one lock so concurrent reservations cannot both
// succeed past available stock.
func (l *MemoryLedger) Reserve(_ context.Context, items []Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, it := range items {
		available, tracked := l.stock[it.ProductID]
		if !tracked {
			continue
		}
		if available < it.Quantity {
			return &InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: available,
			}
		}
	}

	for _, it := range items {
		if _, tracked := l.stock[it.ProductID]; tracked {
			l.stock[it.ProductID] -= it.Quantity
		}
	}
	return nil
}

// Release adds reserved quantities back.
func (l *MemoryLedger) Release(_ context.Context, items []Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, it := range items {
		if _, tracked := l.stock[it.ProductID]; tracked {
			l.stock[it.ProductID] += it.Quantity
		}
	}
	return nil
}
