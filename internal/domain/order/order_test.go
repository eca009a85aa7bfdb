package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/checkout/internal/domain/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func twoSellerOrder() *Order {
	return &Order{
		ID:     "o1",
		Status: StatusConfirmed,
		Items: []Item{
			{ID: "i1", ProductID: "p1", SellerID: "seller-a", Quantity: 2, Subtotal: dec("200"), Status: StatusConfirmed},
			{ID: "i2", ProductID: "p2", SellerID: "seller-b", Quantity: 1, Subtotal: dec("50"), Status: StatusConfirmed},
			{ID: "i3", ProductID: "p3", SellerID: "seller-a", Quantity: 1, Subtotal: dec("30"), Status: StatusConfirmed},
		},
		Pricing: pricing.Totals{Subtotal: dec("280"), Total: dec("280")},
	}
}

func TestSellers_Projection(t *testing.T) {
	o := twoSellerOrder()

	sellers := o.Sellers()
	require.Len(t, sellers, 2)

	assert.Equal(t, "seller-a", sellers[0].SellerID)
	assert.Equal(t, []string{"i1", "i3"}, sellers[0].ItemIDs)
	assert.True(t, dec("230").Equal(sellers[0].Subtotal), "got %s", sellers[0].Subtotal)

	assert.Equal(t, "seller-b", sellers[1].SellerID)
	assert.True(t, dec("50").Equal(sellers[1].Subtotal))

	// The projection follows items: changing an item changes the split.
	o.Items[1].Subtotal = dec("75")
	assert.True(t, dec("75").Equal(o.Sellers()[1].Subtotal))
}

func TestSellers_StatusIsLeastAdvancedItem(t *testing.T) {
	o := twoSellerOrder()
	o.Items[0].Status = StatusShipped
	o.Items[2].Status = StatusProcessing

	sellers := o.Sellers()
	assert.Equal(t, StatusProcessing, sellers[0].Status)
}

func TestSetSellerStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("partial fulfillment does not advance top-level status", func(t *testing.T) {
		o := twoSellerOrder()

		require.NoError(t, o.SetSellerStatus("seller-a", StatusShipped, "seller-a", now))

		// seller-b is still confirmed, so the order stays confirmed.
		assert.Equal(t, StatusConfirmed, o.Status)
		assert.Equal(t, StatusShipped, o.Sellers()[0].Status)
		assert.Equal(t, StatusConfirmed, o.Sellers()[1].Status)
	})

	t.Run("all sellers advancing moves the top-level status", func(t *testing.T) {
		o := twoSellerOrder()
		o.Status = StatusProcessing
		for i := range o.Items {
			o.Items[i].Status = StatusProcessing
		}

		require.NoError(t, o.SetSellerStatus("seller-a", StatusShipped, "seller-a", now))
		assert.Equal(t, StatusProcessing, o.Status)

		require.NoError(t, o.SetSellerStatus("seller-b", StatusShipped, "seller-b", now))
		assert.Equal(t, StatusShipped, o.Status)
		require.NotNil(t, o.ShippedAt)
	})

	t.Run("unknown seller", func(t *testing.T) {
		o := twoSellerOrder()
		err := o.SetSellerStatus("seller-z", StatusShipped, "x", now)
		require.ErrorIs(t, err, ErrSellerNotFound)
	})

	t.Run("non-fulfillment status rejected", func(t *testing.T) {
		o := twoSellerOrder()
		err := o.SetSellerStatus("seller-a", StatusRefunded, "x", now)

		var te *TransitionError
		require.ErrorAs(t, err, &te)
	})
}

func TestItemsSubtotal_MatchesPricing(t *testing.T) {
	o := twoSellerOrder()
	assert.True(t, o.ItemsSubtotal().Equal(o.Pricing.Subtotal),
		"items %s, pricing %s", o.ItemsSubtotal(), o.Pricing.Subtotal)
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := NewOrderNumber(now)
	b := NewOrderNumber(now)

	assert.Regexp(t, `^ORD-20260301-[0-9A-F]{10}$`, a)
	assert.NotEqual(t, a, b)
}
