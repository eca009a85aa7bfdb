package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vendora/checkout/internal/domain/cart"
	"github.com/vendora/checkout/internal/domain/inventory"
	"github.com/vendora/checkout/internal/domain/notification"
	"github.com/vendora/checkout/internal/domain/payment"
)

// Sentinel errors for order operations.
var (
	ErrNotFound              = errors.New("order not found")
	ErrNotOwner              = errors.New("order does not belong to customer")
	ErrMissingAddress        = errors.New("billing and shipping addresses are required")
	ErrNotReturnable         = errors.New("order is not returnable")
	ErrReturnNotFound        = errors.New("return request not found")
	ErrReturnAlreadyResolved = errors.New("return request already resolved")
)

// UnavailableItemsError aborts checkout when validation flags items.
type UnavailableItemsError struct {
	Items []cart.LineItem
}

func (e *UnavailableItemsError) Error() string {
	reasons := make([]string, len(e.Items))
	for i, it := range e.Items {
		reasons[i] = fmt.Sprintf("%s: %s", it.ProductID, it.AvailabilityReason)
	}
	return "cart has unavailable items: " + strings.Join(reasons, "; ")
}

// TxRepos are the repositories bound to one storage transaction.
type TxRepos struct {
	Orders Repository
	Carts  cart.Repository
	Ledger inventory.Ledger
}

// UnitOfWork runs fn atomically: every repository operation inside fn
// commits or rolls back as one. Checkout depends on this so order creation
// and the stock decrement can never be observed apart.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// CartValidator refreshes availability and price snapshots on a cart held
// by the caller. Implemented by the cart service.
type CartValidator interface {
	Revalidate(ctx context.Context, c *cart.Cart) error
}

// Config holds the order service tunables.
type Config struct {
	TaxRate      decimal.Decimal
	ReturnWindow time.Duration
}

// CheckoutRequest is the input to Checkout.
type CheckoutRequest struct {
	Addresses     Addresses
	PaymentMethod string
}

// Service drives the order lifecycle: checkout, status transitions,
// returns and refunds.
type Service struct {
	uow       UnitOfWork
	orders    Repository
	validator CartValidator
	payments  payment.Gateway
	notify    notification.Sender
	lg        *zap.Logger
	cfg       Config
	now       func() time.Time
}

// NewService creates an order Service.
func NewService(
	uow UnitOfWork,
	orders Repository,
	validator CartValidator,
	payments payment.Gateway,
	notify notification.Sender,
	lg *zap.Logger,
	cfg Config,
) *Service {
	if cfg.ReturnWindow <= 0 {
		cfg.ReturnWindow = 30 * 24 * time.Hour
	}
	return &Service{
		uow:       uow,
		orders:    orders,
		validator: validator,
		payments:  payments,
		notify:    notify,
		lg:        lg,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Get loads an order by id. A non-empty customerID restricts access to the
// order's owner; back-office callers pass an empty customerID.
func (s *Service) Get(ctx context.Context, orderID, customerID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if customerID != "" && o.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	return o, nil
}

// Checkout converts the customer's active cart into an order. Inside one
// transaction it revalidates the cart, snapshots it, reserves stock with a
// conditional decrement, captures payment and marks the cart converted;
// any failure rolls the whole conversion back.
func (s *Service) Checkout(ctx context.Context, customerID string, req CheckoutRequest) (*Order, error) {
	if req.Addresses.Billing.Empty() || req.Addresses.Shipping.Empty() {
		return nil, ErrMissingAddress
	}

	var created *Order
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		c, err := repos.Carts.GetActive(ctx, customerID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return cart.ErrEmpty
		}

		if err := s.validator.Revalidate(ctx, c); err != nil {
			return errors.Wrap(err, "validate cart items")
		}
		if unavailable := c.Unavailable(); len(unavailable) > 0 {
			return &UnavailableItemsError{Items: unavailable}
		}
		c.Recalculate(s.cfg.TaxRate)

		now := s.now()
		o := s.snapshot(c, req, now)

		if err := repos.Ledger.Reserve(ctx, reservations(o.Items)); err != nil {
			return err
		}

		charge, err := s.payments.Charge(ctx, payment.ChargeRequest{
			OrderNumber: o.OrderNumber,
			CustomerID:  customerID,
			Method:      req.PaymentMethod,
			Amount:      o.Pricing.Total,
		})
		if err != nil {
			return errors.Wrap(err, "charge payment")
		}
		if charge.Status == payment.StatusFailed {
			return payment.ErrDeclined
		}
		o.Payment.TransactionID = charge.TransactionID
		if charge.Status == payment.StatusCompleted {
			o.Payment.Status = PaymentCompleted
			o.Payment.PaidAmount = o.Pricing.Total
		} else {
			o.Payment.Status = PaymentProcessing
		}

		if err := repos.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		c.MarkConverted(now)
		if err := repos.Carts.Save(ctx, c); err != nil {
			return errors.Wrap(err, "convert cart")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	notification.Dispatch(s.lg, s.notify, notification.EventOrderCreated, map[string]any{
		"orderId":     created.ID,
		"orderNumber": created.OrderNumber,
		"customerId":  created.CustomerID,
		"total":       created.Pricing.Total,
	})

	return created, nil
}

// UpdateStatus applies a lifecycle transition. Cancellation restores stock
// for every line item in the same transaction; this is the only place
// inventory is restored outside an explicit return.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus Status, message, actor string) (*Order, error) {
	var updated *Order
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		o, err := repos.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}

		if err := o.UpdateStatus(newStatus, message, actor, s.now()); err != nil {
			return err
		}

		if newStatus == StatusCancelled {
			if err := repos.Ledger.Release(ctx, reservations(o.Items)); err != nil {
				return errors.Wrap(err, "restore stock")
			}
		}

		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	notification.Dispatch(s.lg, s.notify, notification.EventOrderStatus, map[string]any{
		"orderId": updated.ID,
		"status":  updated.Status,
		"actor":   actor,
	})

	return updated, nil
}

// Cancel cancels the order while it is still cancellable. Only the owning
// customer may cancel; back-office cancellation goes through UpdateStatus.
func (s *Service) Cancel(ctx context.Context, orderID, customerID, reason string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	return s.UpdateStatus(ctx, orderID, StatusCancelled, reason, customerID)
}

// UpdateSellerStatus advances one seller's portion of the order, allowing
// partial fulfillment without moving the top-level status ahead of the
// least advanced seller.
func (s *Service) UpdateSellerStatus(ctx context.Context, orderID, sellerID string, status Status, actor string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.SetSellerStatus(sellerID, status, actor, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RequestReturn records a return request by the owning customer for
// delivered items within the return window.
func (s *Service) RequestReturn(ctx context.Context, orderID, customerID string, itemIDs []string, reason string) (*ReturnRequest, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotOwner
	}

	now := s.now()
	if !o.CanReturn(now, s.cfg.ReturnWindow) {
		return nil, ErrNotReturnable
	}

	for _, id := range itemIDs {
		found := false
		for _, it := range o.Items {
			if it.ID == id {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Wrapf(ErrReturnNotFound, "item %s not part of order", id)
		}
	}
	if len(itemIDs) == 0 {
		for _, it := range o.Items {
			itemIDs = append(itemIDs, it.ID)
		}
	}

	req := ReturnRequest{
		ID:          uuid.New().String(),
		ItemIDs:     itemIDs,
		Reason:      reason,
		Status:      ReturnRequested,
		RequestedAt: now,
	}
	o.Returns = append(o.Returns, req)
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	notification.Dispatch(s.lg, s.notify, notification.EventReturnRequest, map[string]any{
		"orderId":  o.ID,
		"returnId": req.ID,
	})

	return &req, nil
}

// CompleteReturn resolves a return request: restores stock for the
// returned items, transitions the order to returned, and opens a refund
// for the returned amount — all in one transaction.
func (s *Service) CompleteReturn(ctx context.Context, orderID, returnID, actor string) (*Order, error) {
	var updated *Order
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		o, err := repos.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}

		req := findReturn(o, returnID)
		if req == nil {
			return ErrReturnNotFound
		}
		if req.Status != ReturnRequested {
			return ErrReturnAlreadyResolved
		}

		now := s.now()
		returned := itemsByID(o, req.ItemIDs)

		if err := repos.Ledger.Release(ctx, reservations(returned)); err != nil {
			return errors.Wrap(err, "restore stock")
		}

		if err := o.UpdateStatus(StatusReturned, "return "+returnID+" completed", actor, now); err != nil {
			return err
		}

		amount := decimal.Zero
		for _, it := range returned {
			amount = amount.Add(it.Subtotal)
		}
		if refundable := o.RefundableAmount(); amount.GreaterThan(refundable) {
			amount = refundable
		}
		if amount.IsPositive() {
			res, err := s.payments.Refund(ctx, o.OrderNumber, amount)
			if err != nil {
				return errors.Wrap(err, "gateway refund")
			}
			if _, err := o.AddRefund(res.RefundID, amount, "return "+returnID, now); err != nil {
				return err
			}
		}

		req.Status = ReturnCompleted
		req.ResolvedAt = &now

		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RejectReturn marks a return request rejected.
func (s *Service) RejectReturn(ctx context.Context, orderID, returnID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	req := findReturn(o, returnID)
	if req == nil {
		return nil, ErrReturnNotFound
	}
	if req.Status != ReturnRequested {
		return nil, ErrReturnAlreadyResolved
	}

	now := s.now()
	req.Status = ReturnRejected
	req.ResolvedAt = &now
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Refund opens a refund against the order's payment, bounded by the
// remaining balance.
func (s *Service) Refund(ctx context.Context, orderID string, amount decimal.Decimal, reason string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Validate before touching the gateway so a rejected amount never
	// produces a dangling gateway refund.
	if !amount.IsPositive() {
		return nil, ErrInvalidRefundAmount
	}
	if !o.Payment.Captured() {
		return nil, ErrOrderNotPaid
	}
	if amount.GreaterThan(o.RefundableAmount()) {
		return nil, errors.Wrapf(ErrRefundExceedsBalance, "amount %s, refundable %s", amount, o.RefundableAmount())
	}

	res, err := s.payments.Refund(ctx, o.OrderNumber, amount)
	if err != nil {
		return nil, errors.Wrap(err, "gateway refund")
	}

	if _, err := o.AddRefund(res.RefundID, amount, reason, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	notification.Dispatch(s.lg, s.notify, notification.EventOrderRefunded, map[string]any{
		"orderId":  o.ID,
		"refundId": res.RefundID,
		"amount":   amount,
	})

	return o, nil
}

// SettleRefund records the gateway's final outcome for a refund.
func (s *Service) SettleRefund(ctx context.Context, orderID, refundID string, status RefundStatus) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.SettleRefund(refundID, status, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// snapshot builds the order from a validated cart.
func (s *Service) snapshot(c *cart.Cart, req CheckoutRequest, now time.Time) *Order {
	items := make([]Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = Item{
			ID:        it.ID,
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Variation: it.Variation,
			Subtotal:  it.Subtotal,
			Status:    StatusPending,
		}
	}

	o := &Order{
		ID:          uuid.New().String(),
		OrderNumber: NewOrderNumber(now),
		CustomerID:  c.CustomerID,
		Status:      StatusPending,
		Items:       items,
		Pricing:     c.Totals,
		Addresses:   req.Addresses,
		Payment: Payment{
			Method:     req.PaymentMethod,
			Status:     PaymentPending,
			PaidAmount: decimal.Zero,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status:    StatusPending,
		Message:   "order placed",
		Actor:     c.CustomerID,
		Timestamp: now,
	})

	return o
}

func reservations(items []Item) []inventory.Reservation {
	out := make([]inventory.Reservation, len(items))
	for i, it := range items {
		out[i] = inventory.Reservation{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

func findReturn(o *Order, returnID string) *ReturnRequest {
	for i := range o.Returns {
		if o.Returns[i].ID == returnID {
			return &o.Returns[i]
		}
	}
	return nil
}

func itemsByID(o *Order, ids []string) []Item {
	var out []Item
	for _, id := range ids {
		for _, it := range o.Items {
			if it.ID == id {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
