// Package order owns the durable transaction record produced from a cart
// snapshot at checkout: its status state machine, per-seller split, refund
// ledger and timeline. Orders are never deleted.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/pricing"
)

// PaymentStatus enumerates payment lifecycle states.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentCancelled         PaymentStatus = "cancelled"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially-refunded"
)

// Item is one order line: the cart line snapshot plus per-item fulfillment
// status and tracking.
type Item struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	SellerID  string            `json:"sellerId"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`
	Subtotal  decimal.Decimal   `json:"subtotal"`

	Status         Status `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// Address is a billing or shipping address. Both are required non-empty at
// checkout.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Empty reports whether the address lacks the required fields.
func (a Address) Empty() bool {
	return a.Line1 == "" || a.City == "" || a.Country == ""
}

// Addresses groups the two required order addresses.
type Addresses struct {
	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`
}

// Payment holds the opaque gateway outcome and the refund ledger.
type Payment struct {
	Method        string          `json:"method"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transactionId,omitempty"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Refunds       []Refund        `json:"refunds"`
}

// Captured reports whether the gateway has captured funds for this payment.
// A processing charge has no captured amount yet and cannot be refunded.
func (p Payment) Captured() bool {
	switch p.Status {
	case PaymentCompleted, PaymentPartiallyRefunded, PaymentRefunded:
		return true
	}
	return false
}

// TimelineEntry records one status change. The timeline is append-only.
type TimelineEntry struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// ReturnStatus enumerates return request states.
type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnCompleted ReturnStatus = "completed"
	ReturnRejected  ReturnStatus = "rejected"
)

// ReturnRequest is a customer request to return delivered items.
type ReturnRequest struct {
	ID          string       `json:"id"`
	ItemIDs     []string     `json:"itemIds"`
	Reason      string       `json:"reason"`
	Status      ReturnStatus `json:"status"`
	RequestedAt time.Time    `json:"requestedAt"`
	ResolvedAt  *time.Time   `json:"resolvedAt,omitempty"`
}

// SellerOrder is the derived per-seller grouping. It is a pure projection of
// Items, recomputed whenever items change, never edited directly.
type SellerOrder struct {
	SellerID string          `json:"sellerId"`
	ItemIDs  []string        `json:"itemIds"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Status   Status          `json:"status"`
}

// Order is the aggregate root.
type Order struct {
	ID          string
	OrderNumber string
	CustomerID  string
	Status      Status
	Items       []Item
	Pricing     pricing.Totals
	Addresses   Addresses
	Payment     Payment
	Timeline    []TimelineEntry
	Returns     []ReturnRequest

	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrderNumber derives a globally unique order number. It is assigned
// exactly once at creation and never reassigned.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// Sellers projects the per-seller split: items grouped by seller with the
// seller subtotal and the least advanced item status. Groups appear in
// first-seen item order.
func (o *Order) Sellers() []SellerOrder {
	index := make(map[string]int)
	var sellers []SellerOrder

	for _, it := range o.Items {
		i, ok := index[it.SellerID]
		if !ok {
			i = len(sellers)
			index[it.SellerID] = i
			sellers = append(sellers, SellerOrder{
				SellerID: it.SellerID,
				Subtotal: decimal.Zero,
				Status:   it.Status,
			})
		}
		s := &sellers[i]
		s.ItemIDs = append(s.ItemIDs, it.ID)
		s.Subtotal = s.Subtotal.Add(it.Subtotal)
		if statusRank(it.Status) < statusRank(s.Status) {
			s.Status = it.Status
		}
	}

	return sellers
}

// SetSellerStatus advances the fulfillment status of every item belonging
// to the given seller. The order's top-level status is then capped at the
// least advanced seller status, so the order never reports a state ahead of
// its slowest seller.
func (o *Order) SetSellerStatus(sellerID string, status Status, actor string, at time.Time) error {
	if !isFulfillment(status) {
		return &TransitionError{From: o.Status, To: status}
	}

	found := false
	for i := range o.Items {
		if o.Items[i].SellerID == sellerID {
			o.Items[i].Status = status
			found = true
		}
	}
	if !found {
		return ErrSellerNotFound
	}

	// Re-derive the top-level status from the projection.
	derived := o.leastAdvancedSellerStatus()
	if derived != o.Status && CanTransition(o.Status, derived) {
		return o.UpdateStatus(derived, fmt.Sprintf("all sellers reached %s", derived), actor, at)
	}

	o.UpdatedAt = at
	return nil
}

func (o *Order) leastAdvancedSellerStatus() Status {
	sellers := o.Sellers()
	if len(sellers) == 0 {
		return o.Status
	}
	least := sellers[0].Status
	for _, s := range sellers[1:] {
		if statusRank(s.Status) < statusRank(least) {
			least = s.Status
		}
	}
	return least
}

// ItemsSubtotal sums the line subtotals; it must always equal
// Pricing.Subtotal.
func (o *Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
}
