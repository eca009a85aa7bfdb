package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeShipping waives the shipping cost captured at apply time.
	DiscountFreeShipping DiscountType = "free-shipping"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is not found.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrMinimumNotMet is returned when the cart subtotal is below the
	// coupon's minimum amount.
	ErrMinimumNotMet = errors.New("cart subtotal below coupon minimum")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
)

// Rule defines a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinAmount    decimal.Decimal
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	MaxUses      int
	Uses         int
}

// Applied is a coupon resolved to a concrete discount amount. The amount is
// fixed at apply time; a free-shipping coupon keeps the shipping cost it
// captured even if the shipping method changes afterwards.
type Applied struct {
	Code     string          `json:"code"`
	Type     DiscountType    `json:"type"`
	Discount decimal.Decimal `json:"discountAmount"`
}

// Repository provides lookup and mutation of coupon rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
	DecrementUses(ctx context.Context, code string) error
}
