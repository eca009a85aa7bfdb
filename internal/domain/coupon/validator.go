package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator resolves a coupon code and computes the discount it grants
// against the given subtotal and shipping cost. Validate does not consume a
// use: the caller records the redemption with Use once the coupon is durably
// attached, and hands it back with Release when the coupon is detached.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal, shippingCost decimal.Decimal) (*Applied, error)
	Use(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

// RepoValidator implements Validator by looking up coupon rules from a
// Repository and applying them via the Apply function.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon rule for the given code, checks temporal
// validity and usage limits, and applies it. The usage counter is untouched.
func (v *RepoValidator) Validate(ctx context.Context, code string, subtotal, shippingCost decimal.Decimal) (*Applied, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := v.now()

	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrCouponExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrCouponExpired
	}

	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return nil, ErrCouponUsageLimitReached
	}

	applied, err := Apply(rule, subtotal, shippingCost)
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// Use records one redemption of the code.
func (v *RepoValidator) Use(ctx context.Context, code string) error {
	if err := v.repo.IncrementUses(ctx, code); err != nil {
		return errors.Wrap(err, "increment coupon uses")
	}
	return nil
}

// Release hands a redemption back, e.g. when a coupon is removed from a
// cart before checkout.
func (v *RepoValidator) Release(ctx context.Context, code string) error {
	if err := v.repo.DecrementUses(ctx, code); err != nil {
		return errors.Wrap(err, "decrement coupon uses")
	}
	return nil
}
