package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("subtract floors at zero", func(t *testing.T) {
		l := NewMemoryLedger(map[string]int{"p1": 3})

		got, err := l.Adjust(ctx, "p1", 10, OpSubtract)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("add then subtract", func(t *testing.T) {
		l := NewMemoryLedger(map[string]int{"p1": 3})

		got, err := l.Adjust(ctx, "p1", 2, OpAdd)
		require.NoError(t, err)
		assert.Equal(t, 5, got)

		got, err = l.Adjust(ctx, "p1", 4, OpSubtract)
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("unknown product", func(t *testing.T) {
		l := NewMemoryLedger(nil)

		_, err := l.Adjust(ctx, "missing", 1, OpAdd)
		require.ErrorIs(t, err, ErrUnknownProduct)
	})
}

func TestMemoryLedger_NeverNegative(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int{"p1": 5})

	ops := []struct {
		qty int
		op  Op
	}{
		{3, OpSubtract}, {10, OpSubtract}, {2, OpAdd}, {7, OpSubtract}, {1, OpAdd},
	}
	for _, o := range ops {
		got, err := l.Adjust(ctx, "p1", o.qty, o.op)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0)
	}
}

func TestMemoryLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("all or nothing", func(t *testing.T) {
		l := NewMemoryLedger(map[string]int{"p1": 5, "p2": 1})

		err := l.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		})

		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "p2", insufficient.ProductID)
		assert.Equal(t, 3, insufficient.Requested)
		assert.Equal(t, 1, insufficient.Available)

		// p1 must be untouched.
		assert.Equal(t, 5, l.Quantity("p1"))
	})

	t.Run("untracked ids are skipped", func(t *testing.T) {
		l := NewMemoryLedger(map[string]int{"p1": 2})

		err := l.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "digital-download", Quantity: 99},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, l.Quantity("p1"))
	})

	t.Run("release restores", func(t *testing.T) {
		l := NewMemoryLedger(map[string]int{"p1": 2})
		items := []Reservation{{ProductID: "p1", Quantity: 2}}

		require.NoError(t, l.Reserve(ctx, items))
		require.NoError(t, l.Release(ctx, items))
		assert.Equal(t, 2, l.Quantity("p1"))
	})
}

func TestMemoryLedger_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]int{"p1": 10})

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 20)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Reserve(ctx, []Reservation{{ProductID: "p1", Quantity: 1}}); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	assert.Len(t, succeeded, 10)
	assert.Equal(t, 0, l.Quantity("p1"))
}
