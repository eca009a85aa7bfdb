package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply resolves a rule against the cart's available-items subtotal and the
// currently selected shipping cost, returning the concrete discount.
//
// It returns ErrMinimumNotMet when the subtotal is below the rule's minimum.
// The free-shipping amount is the shipping cost at apply time; it is not
// recomputed later.
func Apply(rule *Rule, subtotal, shippingCost decimal.Decimal) (Applied, error) {
	if rule.MinAmount.IsPositive() && subtotal.LessThan(rule.MinAmount) {
		return Applied{}, errors.Wrapf(ErrMinimumNotMet, "subtotal %s < minimum %s", subtotal, rule.MinAmount)
	}

	var amount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case DiscountFixed:
		amount = rule.Value
	case DiscountFreeShipping:
		amount = shippingCost
	default:
		return Applied{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Applied{
		Code:     rule.Code,
		Type:     rule.DiscountType,
		Discount: amount.Round(2),
	}, nil
}
