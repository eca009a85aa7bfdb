package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendora/checkout/internal/domain/order"
)

var _ order.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork implements order.UnitOfWork on a pgx transaction. Every
// repository handed to the callback shares the transaction, so checkout's
// order insert, stock decrement and cart conversion commit or roll back as
// one.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork returns a UnitOfWork backed by the given pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// WithinTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos order.TxRepos) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	repos := order.TxRepos{
		Orders: NewOrderRepository(tx),
		Carts:  NewCartRepository(tx),
		Ledger: NewInventoryLedger(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
