// Package pricing computes cart and order totals. It is pure: no I/O, no
// clock, no state. Every mutating operation on a cart or order re-runs
// Compute so stored totals are never authoritative.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Item is the pricing view of a line item. Unavailable items stay in the
// list but contribute nothing to any total.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int

	// FixedDiscount and PercentDiscount are mutually exclusive per item.
	// When both are set, fixed takes precedence; they are never combined.
	FixedDiscount   decimal.Decimal
	PercentDiscount decimal.Decimal

	Available bool
}

// Totals is the derived pricing breakdown.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// LineTotal returns the item's subtotal after its own discount, floored at
// zero. Fixed discounts win over percentage discounts.
func LineTotal(it Item) decimal.Decimal {
	line := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))

	switch {
	case !it.FixedDiscount.IsZero():
		line = line.Sub(it.FixedDiscount)
	case !it.PercentDiscount.IsZero():
		line = line.Sub(line.Mul(it.PercentDiscount).Div(hundred))
	}

	return floorAtZero(line).Round(2)
}

// Subtotal sums line totals over available items only.
func Subtotal(items []Item) decimal.Decimal {
	sum := zero
	for _, it := range items {
		if !it.Available {
			continue
		}
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

// Compute derives the full totals breakdown.
//
// couponDiscount is the pre-resolved sum of applied coupon amounts; coupons
// are not re-evaluated here. Tax is taxRate applied to the discounted
// subtotal. Negative intermediate values clamp to zero rather than erroring.
func Compute(items []Item, couponDiscount, shipping, taxRate decimal.Decimal) Totals {
	subtotal := Subtotal(items)

	taxable := floorAtZero(subtotal.Sub(couponDiscount))
	tax := taxable.Mul(taxRate).Round(2)

	total := subtotal.Sub(couponDiscount).Add(shipping).Add(tax)
	total = floorAtZero(total).Round(2)

	return Totals{
		Subtotal: subtotal,
		Discount: couponDiscount.Round(2),
		Shipping: shipping.Round(2),
		Tax:      tax,
		Total:    total,
	}
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
