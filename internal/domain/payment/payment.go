// Package payment defines the opaque payment gateway collaborator. The
// protocol behind it is out of scope; the core only consumes a status and
// a transaction id.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the gateway's view of a charge or refund.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// ErrDeclined is returned when the gateway refuses a charge.
var ErrDeclined = errors.New("payment declined")

// ChargeRequest describes a charge to capture.
type ChargeRequest struct {
	OrderNumber string
	CustomerID  string
	Method      string
	Amount      decimal.Decimal
}

// ChargeResult is the gateway outcome for a charge.
type ChargeResult struct {
	TransactionID string
	Status        Status
}

// RefundResult is the gateway outcome for a refund.
type RefundResult struct {
	RefundID string
	Status   Status
}

// Gateway is the external payment collaborator.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, orderNumber string, amount decimal.Decimal) (*RefundResult, error)
}

var _ Gateway = (*StubGateway)(nil)

// StubGateway approves every charge and refund. Used in development and
// tests until a real gateway adapter is wired in.
type StubGateway struct{}

// NewStubGateway creates a StubGateway.
func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

// Charge approves the charge with a fresh transaction id.
func (*StubGateway) Charge(_ context.Context, _ ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{
		TransactionID: "txn_" + uuid.New().String(),
		Status:        StatusCompleted,
	}, nil
}

// Refund approves the refund with a fresh refund id.
func (*StubGateway) Refund(_ context.Context, _ string, _ decimal.Decimal) (*RefundResult, error) {
	return &RefundResult{
		RefundID: "ref_" + uuid.New().String(),
		Status:   StatusProcessing,
	}, nil
}
