package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RefundStatus enumerates refund record states.
type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
)

// Refund is one append-only refund record against the order's payment.
type Refund struct {
	ID          string          `json:"refundId"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	Status      RefundStatus    `json:"status"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Refund ledger errors.
var (
	ErrInvalidRefundAmount  = errors.New("refund amount must be greater than 0")
	ErrRefundExceedsBalance = errors.New("refund exceeds remaining balance")
	ErrRefundRecordNotFound = errors.New("refund record not found")
	ErrRefundAlreadySettled = errors.New("refund already settled")
	ErrOrderNotPaid         = errors.New("order payment is not captured")
)

// TotalRefunded sums completed refund records.
func (o *Order) TotalRefunded() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range o.Payment.Refunds {
		if r.Status == RefundCompleted {
			sum = sum.Add(r.Amount)
		}
	}
	return sum
}

// outstandingRefunds sums records that are not failed: pending and
// processing refunds hold their amount against the balance so a burst of
// requests cannot oversubscribe the payment.
func (o *Order) outstandingRefunds() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range o.Payment.Refunds {
		if r.Status != RefundFailed {
			sum = sum.Add(r.Amount)
		}
	}
	return sum
}

// RefundableAmount is what can still be requested: the captured amount
// minus outstanding refunds. Only captured funds are refundable, so the
// bound is PaidAmount, never the order total.
func (o *Order) RefundableAmount() decimal.Decimal {
	remaining := o.Payment.PaidAmount.Sub(o.outstandingRefunds())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AddRefund appends a pending refund record. It rejects uncaptured
// payments, non-positive amounts and amounts beyond the remaining balance;
// the order is not mutated on rejection.
func (o *Order) AddRefund(refundID string, amount decimal.Decimal, reason string, at time.Time) (*Refund, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidRefundAmount
	}
	if !o.Payment.Captured() {
		return nil, ErrOrderNotPaid
	}
	if amount.GreaterThan(o.RefundableAmount()) {
		return nil, errors.Wrapf(ErrRefundExceedsBalance, "amount %s, refundable %s", amount, o.RefundableAmount())
	}

	o.Payment.Refunds = append(o.Payment.Refunds, Refund{
		ID:        refundID,
		Amount:    amount,
		Reason:    reason,
		Status:    RefundPending,
		CreatedAt: at,
	})
	o.UpdatedAt = at

	return &o.Payment.Refunds[len(o.Payment.Refunds)-1], nil
}

// SettleRefund marks a refund completed or failed and re-derives the
// aggregate payment status: refunded once completed refunds cover the paid
// amount, partially-refunded while any amount is refunded.
func (o *Order) SettleRefund(refundID string, status RefundStatus, at time.Time) error {
	if status != RefundCompleted && status != RefundFailed {
		return errors.Errorf("refund can only settle to completed or failed, got %q", status)
	}

	var rec *Refund
	for i := range o.Payment.Refunds {
		if o.Payment.Refunds[i].ID == refundID {
			rec = &o.Payment.Refunds[i]
			break
		}
	}
	if rec == nil {
		return ErrRefundRecordNotFound
	}
	if rec.Status == RefundCompleted || rec.Status == RefundFailed {
		return ErrRefundAlreadySettled
	}

	rec.Status = status
	rec.ProcessedAt = &at
	o.UpdatedAt = at

	// An uncaptured payment (PaidAmount zero) can never derive to refunded.
	refunded := o.TotalRefunded()
	switch {
	case o.Payment.PaidAmount.IsPositive() && refunded.GreaterThanOrEqual(o.Payment.PaidAmount):
		o.Payment.Status = PaymentRefunded
	case refunded.IsPositive():
		o.Payment.Status = PaymentPartiallyRefunded
	}

	return nil
}
