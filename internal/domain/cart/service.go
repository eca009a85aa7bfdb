package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/catalog"
	"github.com/vendora/checkout/internal/domain/coupon"
	"github.com/vendora/checkout/internal/domain/pricing"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound        = errors.New("cart not found")
	ErrEmpty           = errors.New("cart is empty")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrDuplicateCoupon = errors.New("coupon already applied")
	ErrCouponNotFound  = errors.New("coupon not applied to cart")
	ErrNotActive       = errors.New("cart is no longer active")
)

// ProductUnavailableError indicates a product cannot be added to a cart.
type ProductUnavailableError struct {
	ProductID string
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s unavailable: %s", e.ProductID, e.Reason)
}

// Repository defines persistence operations for carts.
type Repository interface {
	// GetActive returns the customer's active cart or ErrNotFound.
	GetActive(ctx context.Context, customerID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}

// Config holds the tunables of the cart service.
type Config struct {
	TaxRate  decimal.Decimal
	TTL      time.Duration
	Shipping pricing.ShippingTable
}

// Service implements the cart operations. Every mutation recalculates
// totals before persisting.
type Service struct {
	carts    Repository
	products catalog.Repository
	coupons  coupon.Validator
	cfg      Config
	now      func() time.Time
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products catalog.Repository, coupons coupon.Validator, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.Shipping == nil {
		cfg.Shipping = pricing.DefaultShippingTable()
	}
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Get returns the customer's active cart.
func (s *Service) Get(ctx context.Context, customerID string) (*Cart, error) {
	return s.carts.GetActive(ctx, customerID)
}

// AddItem adds a product to the customer's active cart, creating the cart
// lazily on first add. Adding a product+variation already in the cart
// increments its quantity and refreshes the price snapshot.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, variation map[string]string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if !p.Purchasable() {
		return nil, &ProductUnavailableError{ProductID: productID, Reason: "no longer available"}
	}

	c, err := s.carts.GetActive(ctx, customerID)
	if errors.Is(err, ErrNotFound) {
		c = s.newCart(customerID)
	} else if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	if existing := c.FindItem(productID, variation); existing != nil {
		existing.Quantity += quantity
		existing.UnitPrice = p.Price
	} else {
		c.Items = append(c.Items, LineItem{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantity,
			Variation: variation,
			Available: true,
		})
	}

	return c, s.commit(ctx, c)
}

// UpdateItem sets the quantity of an existing line item.
func (s *Service) UpdateItem(ctx context.Context, customerID, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	it := c.FindItemByID(itemID)
	if it == nil {
		return nil, ErrItemNotFound
	}
	it.Quantity = quantity

	return c, s.commit(ctx, c)
}

// RemoveItem deletes a line item from the cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, itemID string) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	found := false
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return nil, ErrItemNotFound
	}
	c.Items = kept

	return c, s.commit(ctx, c)
}

// Clear empties items, coupons and shipping selection. Clearing an already
// empty cart yields the same empty state; the operation is idempotent.
func (s *Service) Clear(ctx context.Context, customerID string) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	c.Items = nil
	c.Coupons = nil
	c.Shipping = nil

	return c, s.commit(ctx, c)
}

// ApplyCoupon validates and applies a coupon code. The same code cannot be
// stacked twice; eligibility is checked against the available-items
// subtotal. Free-shipping coupons capture the shipping cost at apply time.
// The usage counter is consumed only after the cart change is persisted, so
// a failed save cannot leak a use.
func (s *Service) ApplyCoupon(ctx context.Context, customerID, code string) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if c.HasCoupon(code) {
		return nil, ErrDuplicateCoupon
	}

	applied, err := s.coupons.Validate(ctx, code, c.AvailableSubtotal(), c.ShippingCost())
	if err != nil {
		return nil, err
	}
	c.Coupons = append(c.Coupons, *applied)

	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}
	if err := s.coupons.Use(ctx, code); err != nil {
		return nil, errors.Wrap(err, "record coupon use")
	}
	return c, nil
}

// RemoveCoupon removes an applied coupon and hands its use back, so an
// apply-remove-reapply cycle burns one use, not two. Applying then removing
// a coupon returns totals to their pre-apply values.
func (s *Service) RemoveCoupon(ctx context.Context, customerID, code string) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	found := false
	kept := c.Coupons[:0]
	for _, ap := range c.Coupons {
		if ap.Code == code {
			found = true
			continue
		}
		kept = append(kept, ap)
	}
	if !found {
		return nil, ErrCouponNotFound
	}
	c.Coupons = kept

	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}
	if err := s.coupons.Release(ctx, code); err != nil {
		return nil, errors.Wrap(err, "release coupon use")
	}
	return c, nil
}

// SelectShipping sets the shipping method from the configured cost table.
func (s *Service) SelectShipping(ctx context.Context, customerID string, method pricing.ShippingMethod) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cost, err := s.cfg.Shipping.Cost(method)
	if err != nil {
		return nil, err
	}
	c.Shipping = &ShippingSelection{Method: method, Cost: cost}

	return c, s.commit(ctx, c)
}

// ValidateItems re-fetches every product and refreshes availability and
// price snapshots:
//   - unpublished product      -> unavailable, "no longer available"
//   - tracked stock < quantity -> unavailable, "only N available"
//   - price drift              -> snapshot updated, item stays available
//
// It must run immediately before checkout; the refreshed cart is persisted.
func (s *Service) ValidateItems(ctx context.Context, customerID string) (*Cart, error) {
	c, err := s.carts.GetActive(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.Revalidate(ctx, c); err != nil {
		return nil, err
	}
	return c, s.commit(ctx, c)
}

// Revalidate refreshes availability in place without persisting. The
// checkout path uses it on a cart it already holds inside a transaction.
func (s *Service) Revalidate(ctx context.Context, c *Cart) error {
	if len(c.Items) == 0 {
		return nil
	}

	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	for i := range c.Items {
		it := &c.Items[i]

		p, ok := byID[it.ProductID]
		if !ok || !p.Purchasable() {
			it.Available = false
			it.AvailabilityReason = "no longer available"
			continue
		}

		if p.TrackInventory && p.Quantity < it.Quantity {
			it.Available = false
			it.AvailabilityReason = fmt.Sprintf("only %d available", p.Quantity)
			continue
		}

		it.Available = true
		it.AvailabilityReason = ""
		if !p.Price.Equal(it.UnitPrice) {
			it.UnitPrice = p.Price
			it.AvailabilityReason = fmt.Sprintf("price changed to %s", p.Price)
		}
	}

	return nil
}

// MarkConverted flags the cart as converted after a successful checkout.
// The transition is terminal; a converted cart is never reused.
func (c *Cart) MarkConverted(at time.Time) {
	c.Status = StatusConverted
	c.LastActivity = at
	c.UpdatedAt = at
}

func (s *Service) newCart(customerID string) *Cart {
	now := s.now()
	return &Cart{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     StatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.TTL),
	}
}

// commit recalculates totals, touches activity timestamps, and persists.
func (s *Service) commit(ctx context.Context, c *Cart) error {
	if c.Status != StatusActive {
		return ErrNotActive
	}

	now := s.now()
	c.Recalculate(s.cfg.TaxRate)
	c.LastActivity = now
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(s.cfg.TTL)

	return s.carts.Save(ctx, c)
}
