package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/checkout/internal/domain/pricing"
)

func paidOrder(total string) *Order {
	return &Order{
		ID:      "o1",
		Status:  StatusDelivered,
		Pricing: pricing.Totals{Total: dec(total)},
		Payment: Payment{
			Status:     PaymentCompleted,
			PaidAmount: dec(total),
		},
	}
}

func TestAddRefund(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("appends pending record", func(t *testing.T) {
		o := paidOrder("300")

		rec, err := o.AddRefund("r1", dec("100"), "damaged item", now)
		require.NoError(t, err)

		assert.Equal(t, RefundPending, rec.Status)
		assert.True(t, dec("100").Equal(rec.Amount))
		require.Len(t, o.Payment.Refunds, 1)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		o := paidOrder("300")

		_, err := o.AddRefund("r1", decimal.Zero, "", now)
		require.ErrorIs(t, err, ErrInvalidRefundAmount)
		assert.Empty(t, o.Payment.Refunds)
	})

	t.Run("rejects amount over remaining balance", func(t *testing.T) {
		o := paidOrder("300")

		_, err := o.AddRefund("r1", dec("301"), "", now)
		require.ErrorIs(t, err, ErrRefundExceedsBalance)
	})

	t.Run("pending refunds hold the balance", func(t *testing.T) {
		o := paidOrder("300")

		_, err := o.AddRefund("r1", dec("200"), "", now)
		require.NoError(t, err)

		_, err = o.AddRefund("r2", dec("200"), "", now)
		require.ErrorIs(t, err, ErrRefundExceedsBalance)

		_, err = o.AddRefund("r2", dec("100"), "", now)
		require.NoError(t, err)
	})

	t.Run("failed refund releases its hold", func(t *testing.T) {
		o := paidOrder("300")

		_, err := o.AddRefund("r1", dec("300"), "", now)
		require.NoError(t, err)
		require.NoError(t, o.SettleRefund("r1", RefundFailed, now))

		_, err = o.AddRefund("r2", dec("300"), "", now)
		require.NoError(t, err)
	})

	t.Run("rejects unpaid order", func(t *testing.T) {
		o := paidOrder("300")
		o.Payment.Status = PaymentPending

		_, err := o.AddRefund("r1", dec("10"), "", now)
		require.ErrorIs(t, err, ErrOrderNotPaid)
	})

	t.Run("rejects processing charge with nothing captured", func(t *testing.T) {
		o := paidOrder("300")
		o.Payment.Status = PaymentProcessing
		o.Payment.PaidAmount = decimal.Zero

		_, err := o.AddRefund("r1", dec("300"), "", now)
		require.ErrorIs(t, err, ErrOrderNotPaid)
		assert.Empty(t, o.Payment.Refunds)
	})

	t.Run("bounded by paid amount, not order total", func(t *testing.T) {
		o := paidOrder("300")
		o.Payment.PaidAmount = dec("200")

		_, err := o.AddRefund("r1", dec("300"), "", now)
		require.ErrorIs(t, err, ErrRefundExceedsBalance)

		_, err = o.AddRefund("r1", dec("200"), "", now)
		require.NoError(t, err)
	})
}

func TestSettleRefund_PaymentStatusDerivation(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := paidOrder("300")

	_, err := o.AddRefund("r1", dec("100"), "", now)
	require.NoError(t, err)
	_, err = o.AddRefund("r2", dec("200"), "", now)
	require.NoError(t, err)

	// Nothing completed yet: payment status untouched.
	assert.Equal(t, PaymentCompleted, o.Payment.Status)
	assert.True(t, o.TotalRefunded().IsZero())

	require.NoError(t, o.SettleRefund("r1", RefundCompleted, now))
	assert.Equal(t, PaymentPartiallyRefunded, o.Payment.Status)
	assert.True(t, dec("100").Equal(o.TotalRefunded()))

	require.NoError(t, o.SettleRefund("r2", RefundCompleted, now))
	assert.Equal(t, PaymentRefunded, o.Payment.Status)
	assert.True(t, dec("300").Equal(o.TotalRefunded()))
}

func TestSettleRefund_Guards(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := paidOrder("300")

	_, err := o.AddRefund("r1", dec("100"), "", now)
	require.NoError(t, err)

	require.ErrorIs(t, o.SettleRefund("missing", RefundCompleted, now), ErrRefundRecordNotFound)
	require.Error(t, o.SettleRefund("r1", RefundPending, now))

	require.NoError(t, o.SettleRefund("r1", RefundCompleted, now))
	require.ErrorIs(t, o.SettleRefund("r1", RefundCompleted, now), ErrRefundAlreadySettled)
}

func TestSettleRefund_UncapturedPaymentNeverRefunded(t *testing.T) {
	// A refund record that predates the capture outcome (e.g. legacy data)
	// must not flip an uncaptured payment to refunded when settled.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := paidOrder("300")
	o.Payment.Status = PaymentProcessing
	o.Payment.PaidAmount = decimal.Zero
	o.Payment.Refunds = []Refund{{ID: "r1", Amount: dec("300"), Status: RefundPending, CreatedAt: now}}

	require.NoError(t, o.SettleRefund("r1", RefundCompleted, now))
	assert.NotEqual(t, PaymentRefunded, o.Payment.Status)
}

func TestTotalRefunded_NeverExceedsPaidAmount(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	orders := map[string]*Order{
		"captured": paidOrder("300"),
		"processing charge": {
			ID:      "o2",
			Status:  StatusDelivered,
			Pricing: pricing.Totals{Total: dec("300")},
			Payment: Payment{Status: PaymentProcessing, PaidAmount: decimal.Zero},
		},
	}

	for name, o := range orders {
		t.Run(name, func(t *testing.T) {
			amounts := []string{"150", "150", "1", "300", "0.01"}
			for i, a := range amounts {
				rec, err := o.AddRefund("r"+string(rune('0'+i)), dec(a), "", now)
				if err != nil {
					continue
				}
				_ = o.SettleRefund(rec.ID, RefundCompleted, now)
			}

			assert.True(t, o.TotalRefunded().LessThanOrEqual(o.Payment.PaidAmount),
				"refunded %s, paid %s", o.TotalRefunded(), o.Payment.PaidAmount)
		})
	}
}
