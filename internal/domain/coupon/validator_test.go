package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	rule          *Rule
	err           error
	incrementErr  error
	incrementCode string
	decrementCode string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Rule, error) {
	return m.rule, m.err
}

func (m *mockCouponRepo) IncrementUses(_ context.Context, code string) error {
	m.incrementCode = code
	return m.incrementErr
}

func (m *mockCouponRepo) DecrementUses(_ context.Context, code string) error {
	m.decrementCode = code
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		subtotal string
		shipping string
		want     string
		wantErr  error
	}{
		{
			name:     "percentage",
			rule:     Rule{Code: "SAVE10", DiscountType: DiscountPercentage, Value: dec("10")},
			subtotal: "250",
			shipping: "50",
			want:     "25",
		},
		{
			name:     "fixed",
			rule:     Rule{Code: "FLAT50", DiscountType: DiscountFixed, Value: dec("50"), MinAmount: dec("200")},
			subtotal: "250",
			shipping: "50",
			want:     "50",
		},
		{
			name:     "free shipping captures current shipping cost",
			rule:     Rule{Code: "SHIPFREE", DiscountType: DiscountFreeShipping},
			subtotal: "250",
			shipping: "150",
			want:     "150",
		},
		{
			name:     "minimum not met",
			rule:     Rule{Code: "SAVE10", DiscountType: DiscountPercentage, Value: dec("10"), MinAmount: dec("500")},
			subtotal: "250",
			shipping: "50",
			wantErr:  ErrMinimumNotMet,
		},
		{
			name:     "subtotal exactly at minimum passes",
			rule:     Rule{Code: "FLAT50", DiscountType: DiscountFixed, Value: dec("50"), MinAmount: dec("250")},
			subtotal: "250",
			shipping: "0",
			want:     "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(&tt.rule, dec(tt.subtotal), dec(tt.shipping))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.rule.Code, got.Code)
			assert.True(t, dec(tt.want).Equal(got.Discount), "want %s, got %s", tt.want, got.Discount)
		})
	}
}

func TestApply_UnsupportedType(t *testing.T) {
	_, err := Apply(&Rule{Code: "X", DiscountType: "bogo"}, dec("250"), dec("0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported discount type")
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name       string
		repo       *mockCouponRepo
		code       string
		subtotal   string
		wantAmount string
		wantErr    error
	}{
		{
			name: "valid code returns discount",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "SAVE10", DiscountType: DiscountPercentage, Value: dec("10"),
			}},
			code:       "SAVE10",
			subtotal:   "100",
			wantAmount: "10",
		},
		{
			name:     "unknown code returns ErrInvalidCoupon",
			repo:     &mockCouponRepo{err: ErrInvalidCoupon},
			code:     "BOGUS",
			subtotal: "100",
			wantErr:  ErrInvalidCoupon,
		},
		{
			name: "minimum not met",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "SAVE10", DiscountType: DiscountPercentage, Value: dec("10"), MinAmount: dec("500"),
			}},
			code:     "SAVE10",
			subtotal: "250",
			wantErr:  ErrMinimumNotMet,
		},
		{
			name: "expired coupon",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "OLD", DiscountType: DiscountPercentage, Value: dec("10"), ValidUntil: &pastTime,
			}},
			code:     "OLD",
			subtotal: "100",
			wantErr:  ErrCouponExpired,
		},
		{
			name: "not yet valid coupon",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "FUTURE", DiscountType: DiscountPercentage, Value: dec("10"), ValidFrom: &futureTime,
			}},
			code:     "FUTURE",
			subtotal: "100",
			wantErr:  ErrCouponExpired,
		},
		{
			name: "within valid window succeeds",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "WINDOW", DiscountType: DiscountFixed, Value: dec("5"),
				ValidFrom: &pastTime, ValidUntil: &futureTime,
			}},
			code:       "WINDOW",
			subtotal:   "100",
			wantAmount: "5",
		},
		{
			name: "usage limit reached",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "LIMITED", DiscountType: DiscountPercentage, Value: dec("10"),
				MaxUses: 100, Uses: 100,
			}},
			code:     "LIMITED",
			subtotal: "100",
			wantErr:  ErrCouponUsageLimitReached,
		},
		{
			name: "unlimited uses always succeeds",
			repo: &mockCouponRepo{rule: &Rule{
				Code: "UNLIMITED", DiscountType: DiscountFixed, Value: dec("5"),
				MaxUses: 0, Uses: 9999,
			}},
			code:       "UNLIMITED",
			subtotal:   "100",
			wantAmount: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Validate(context.Background(), tt.code, dec(tt.subtotal), dec("50"))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, dec(tt.wantAmount).Equal(got.Discount),
				"expected amount %s, got %s", tt.wantAmount, got.Discount)
		})
	}
}

func TestRepoValidator_ValidateDoesNotConsumeUse(t *testing.T) {
	// Redemption is recorded by the caller via Use once the coupon sticks;
	// a bare Validate leaves the counter alone.
	repo := &mockCouponRepo{rule: &Rule{
		Code: "INC", DiscountType: DiscountFixed, Value: dec("5"),
	}}

	v := NewRepoValidator(repo)
	_, err := v.Validate(context.Background(), "INC", dec("100"), dec("50"))

	require.NoError(t, err)
	assert.Empty(t, repo.incrementCode)
}

func TestRepoValidator_UseAndRelease(t *testing.T) {
	repo := &mockCouponRepo{}
	v := NewRepoValidator(repo)

	require.NoError(t, v.Use(context.Background(), "INC"))
	assert.Equal(t, "INC", repo.incrementCode)

	require.NoError(t, v.Release(context.Background(), "INC"))
	assert.Equal(t, "INC", repo.decrementCode)
}

func TestRepoValidator_UseError(t *testing.T) {
	repo := &mockCouponRepo{incrementErr: errors.New("db error")}

	v := NewRepoValidator(repo)
	err := v.Use(context.Background(), "FAIL")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment coupon uses")
}
