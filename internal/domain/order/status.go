package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Status enumerates order lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
	StatusRefunded   Status = "refunded"
)

// ErrSellerNotFound is returned when a seller id matches no order items.
var ErrSellerNotFound = errors.New("seller not part of order")

// TransitionError indicates a status change not allowed by the transition
// graph. The aggregate is left untouched.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// transitions is the allowed status graph. Status never moves backward and
// never leaves a terminal state except returned settling into refunded.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusReturned, StatusRefunded},
	StatusReturned:   {StatusRefunded},
}

// fulfillment progression used for per-seller ranking; terminal states rank
// below everything so a cancelled seller group drags the projection down.
var fulfillmentRank = map[Status]int{
	StatusCancelled:  -1,
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func statusRank(s Status) int {
	if r, ok := fulfillmentRank[s]; ok {
		return r
	}
	return -1
}

func isFulfillment(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// CanTransition reports whether the status graph allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// CanReturn reports whether the order is returnable: delivered, and within
// the return window measured from delivery.
func (o *Order) CanReturn(now time.Time, window time.Duration) bool {
	if o.Status != StatusDelivered || o.DeliveredAt == nil {
		return false
	}
	return now.Sub(*o.DeliveredAt) <= window
}

// UpdateStatus applies a status transition, appends the timeline entry and
// sets the timestamp field matching the new status. Illegal transitions
// return a TransitionError and leave the order unchanged.
func (o *Order) UpdateStatus(newStatus Status, message, actor string, at time.Time) error {
	if !CanTransition(o.Status, newStatus) {
		return &TransitionError{From: o.Status, To: newStatus}
	}

	o.Status = newStatus
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status:    newStatus,
		Message:   message,
		Actor:     actor,
		Timestamp: at,
	})

	switch newStatus {
	case StatusConfirmed:
		o.ConfirmedAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
		// A captured payment keeps its status; the refund ledger settles it.
		if o.Payment.Status == PaymentPending || o.Payment.Status == PaymentProcessing {
			o.Payment.Status = PaymentCancelled
		}
	}

	o.UpdatedAt = at
	return nil
}
