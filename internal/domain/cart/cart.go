// Package cart owns the pre-checkout line item collection for one customer.
// A customer has at most one active cart; totals are always recomputed from
// items, coupons and shipping, never trusted from storage.
package cart

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/coupon"
	"github.com/vendora/checkout/internal/domain/pricing"
)

// Status enumerates cart lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusAbandoned Status = "abandoned"
	StatusConverted Status = "converted"
	StatusExpired   Status = "expired"
)

// LineItem is one product/variation/quantity entry. UnitPrice is a snapshot
// taken when the item was added (refreshed on merge and on validation);
// Subtotal is derived from it and never stored independently of its inputs.
type LineItem struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	SellerID  string            `json:"sellerId"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`

	// Item-level discounts copied from the product at snapshot time.
	// Fixed and percentage are mutually exclusive; fixed wins.
	FixedDiscount   decimal.Decimal `json:"fixedDiscount"`
	PercentDiscount decimal.Decimal `json:"percentDiscount"`

	Subtotal decimal.Decimal `json:"subtotal"`

	Available          bool   `json:"isAvailable"`
	AvailabilityReason string `json:"availabilityReason,omitempty"`
}

// ShippingSelection is the chosen method and its cost at selection time.
type ShippingSelection struct {
	Method pricing.ShippingMethod `json:"method"`
	Cost   decimal.Decimal        `json:"cost"`
}

// Cart is the aggregate root.
type Cart struct {
	ID         string
	CustomerID string
	Status     Status
	Items      []LineItem
	Coupons    []coupon.Applied
	Shipping   *ShippingSelection
	Totals     pricing.Totals

	LastActivity time.Time
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VariationKey is a canonical representation of a variation attribute set,
// used to decide whether an addItem merges into an existing line.
func VariationKey(variation map[string]string) string {
	if len(variation) == 0 {
		return ""
	}
	keys := make([]string, 0, len(variation))
	for k := range variation {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + variation[k]
	}
	return strings.Join(parts, ";")
}

// FindItem returns the line matching product+variation, or nil.
func (c *Cart) FindItem(productID string, variation map[string]string) *LineItem {
	key := VariationKey(variation)
	for i := range c.Items {
		if c.Items[i].ProductID == productID && VariationKey(c.Items[i].Variation) == key {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItemByID returns the line with the given id, or nil.
func (c *Cart) FindItemByID(itemID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// HasCoupon reports whether a coupon with the given code is applied.
func (c *Cart) HasCoupon(code string) bool {
	for _, ap := range c.Coupons {
		if ap.Code == code {
			return true
		}
	}
	return false
}

// CouponDiscount sums the pre-resolved discount amounts of applied coupons.
func (c *Cart) CouponDiscount() decimal.Decimal {
	sum := decimal.Zero
	for _, ap := range c.Coupons {
		sum = sum.Add(ap.Discount)
	}
	return sum
}

// ShippingCost returns the selected shipping cost, zero when none selected.
func (c *Cart) ShippingCost() decimal.Decimal {
	if c.Shipping == nil {
		return decimal.Zero
	}
	return c.Shipping.Cost
}

// AvailableSubtotal is the subtotal over available items only, the base for
// coupon eligibility checks.
func (c *Cart) AvailableSubtotal() decimal.Decimal {
	return pricing.Subtotal(c.pricingItems())
}

// Recalculate rederives every line subtotal and the cart totals. Called
// after every mutating operation; a persisted cart with stale totals is a
// bug, not a valid state.
func (c *Cart) Recalculate(taxRate decimal.Decimal) {
	items := c.pricingItems()
	for i := range c.Items {
		c.Items[i].Subtotal = pricing.LineTotal(items[i])
	}
	c.Totals = pricing.Compute(items, c.CouponDiscount(), c.ShippingCost(), taxRate)
}

// Unavailable lists the items currently flagged unavailable.
func (c *Cart) Unavailable() []LineItem {
	var out []LineItem
	for _, it := range c.Items {
		if !it.Available {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) pricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = pricing.Item{
			UnitPrice:       it.UnitPrice,
			Quantity:        it.Quantity,
			FixedDiscount:   it.FixedDiscount,
			PercentDiscount: it.PercentDiscount,
			Available:       it.Available,
		}
	}
	return items
}
