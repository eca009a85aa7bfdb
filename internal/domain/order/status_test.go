package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
		{StatusDelivered, StatusReturned},
		{StatusDelivered, StatusRefunded},
		{StatusReturned, StatusRefunded},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to Status }{
		{StatusDelivered, StatusPending},
		{StatusShipped, StatusProcessing},
		{StatusPending, StatusShipped},
		{StatusProcessing, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusRefunded},
		{StatusRefunded, StatusReturned},
		{StatusPending, StatusDelivered},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestUpdateStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("legal transition appends timeline and sets timestamp", func(t *testing.T) {
		o := &Order{Status: StatusPending}

		err := o.UpdateStatus(StatusConfirmed, "payment captured", "system", now)
		require.NoError(t, err)

		assert.Equal(t, StatusConfirmed, o.Status)
		require.NotNil(t, o.ConfirmedAt)
		assert.Equal(t, now, *o.ConfirmedAt)
		require.Len(t, o.Timeline, 1)
		assert.Equal(t, "system", o.Timeline[0].Actor)
	})

	t.Run("illegal transition leaves order unchanged", func(t *testing.T) {
		o := &Order{Status: StatusDelivered}

		err := o.UpdateStatus(StatusPending, "", "admin", now)

		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, StatusDelivered, te.From)
		assert.Equal(t, StatusPending, te.To)
		assert.Equal(t, StatusDelivered, o.Status)
		assert.Empty(t, o.Timeline)
	})

	t.Run("cancel sets cancelledAt and voids pending payment", func(t *testing.T) {
		o := &Order{Status: StatusPending, Payment: Payment{Status: PaymentPending}}

		require.NoError(t, o.UpdateStatus(StatusCancelled, "customer request", "cust-1", now))

		require.NotNil(t, o.CancelledAt)
		assert.Equal(t, PaymentCancelled, o.Payment.Status)
	})

	t.Run("cancel keeps a captured payment for the refund ledger", func(t *testing.T) {
		o := &Order{Status: StatusConfirmed, Payment: Payment{Status: PaymentCompleted}}

		require.NoError(t, o.UpdateStatus(StatusCancelled, "", "admin", now))
		assert.Equal(t, PaymentCompleted, o.Payment.Status)
	})
}

func TestCanCancel(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).CanCancel())
	assert.True(t, (&Order{Status: StatusConfirmed}).CanCancel())
	assert.False(t, (&Order{Status: StatusProcessing}).CanCancel())
	assert.False(t, (&Order{Status: StatusShipped}).CanCancel())
	assert.False(t, (&Order{Status: StatusDelivered}).CanCancel())
	assert.False(t, (&Order{Status: StatusCancelled}).CanCancel())
}

func TestCanReturn(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	t.Run("delivered within window", func(t *testing.T) {
		delivered := now.Add(-10 * 24 * time.Hour)
		o := &Order{Status: StatusDelivered, DeliveredAt: &delivered}
		assert.True(t, o.CanReturn(now, window))
	})

	t.Run("delivered outside window", func(t *testing.T) {
		delivered := now.Add(-31 * 24 * time.Hour)
		o := &Order{Status: StatusDelivered, DeliveredAt: &delivered}
		assert.False(t, o.CanReturn(now, window))
	})

	t.Run("not delivered", func(t *testing.T) {
		o := &Order{Status: StatusShipped}
		assert.False(t, o.CanReturn(now, window))
	})
}
