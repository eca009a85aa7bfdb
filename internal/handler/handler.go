// Package handler exposes the transaction core over HTTP. It is a thin
// wrapper: every route decodes input, calls one domain operation, and
// encodes the aggregate back. The customer identity arrives in the
// X-Customer-ID header set by the upstream gateway; back-office routes
// authenticate with an api_key header instead.
package handler

import (
	"net/http"

	"github.com/vendora/checkout/internal/domain/auth"
	"github.com/vendora/checkout/internal/domain/cart"
	"github.com/vendora/checkout/internal/domain/catalog"
	"github.com/vendora/checkout/internal/domain/inventory"
	"github.com/vendora/checkout/internal/domain/order"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	products catalog.Repository
	carts    *cart.Service
	orders   *order.Service
	ledger   inventory.Ledger
	apikeys  auth.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	carts *cart.Service,
	orders *order.Service,
	ledger inventory.Ledger,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		ledger:   ledger,
		apikeys:  apikeys,
	}
}

// Routes registers every API route on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products/{id}/inventory", h.requireKey(h.adjustInventory))

	mux.HandleFunc("GET /api/cart", h.withCustomer(h.getCart))
	mux.HandleFunc("POST /api/cart/items", h.withCustomer(h.addItem))
	mux.HandleFunc("PATCH /api/cart/items/{itemID}", h.withCustomer(h.updateItem))
	mux.HandleFunc("DELETE /api/cart/items/{itemID}", h.withCustomer(h.removeItem))
	mux.HandleFunc("DELETE /api/cart", h.withCustomer(h.clearCart))
	mux.HandleFunc("POST /api/cart/coupons", h.withCustomer(h.applyCoupon))
	mux.HandleFunc("DELETE /api/cart/coupons/{code}", h.withCustomer(h.removeCoupon))
	mux.HandleFunc("PUT /api/cart/shipping", h.withCustomer(h.selectShipping))
	mux.HandleFunc("POST /api/cart/validate", h.withCustomer(h.validateCart))

	mux.HandleFunc("POST /api/checkout", h.withCustomer(h.checkout))
	mux.HandleFunc("GET /api/orders/{id}", h.withOrderReader(h.getOrder))
	mux.HandleFunc("GET /api/orders/{id}/sellers", h.withOrderReader(h.getOrderSellers))
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.withCustomer(h.cancelOrder))
	mux.HandleFunc("POST /api/orders/{id}/returns", h.withCustomer(h.requestReturn))

	mux.HandleFunc("POST /api/orders/{id}/status", h.requireKey(h.updateOrderStatus))
	mux.HandleFunc("POST /api/orders/{id}/sellers/{sellerID}/status", h.requireKey(h.updateSellerStatus))
	mux.HandleFunc("POST /api/orders/{id}/returns/{returnID}/complete", h.requireKey(h.completeReturn))
	mux.HandleFunc("POST /api/orders/{id}/returns/{returnID}/reject", h.requireKey(h.rejectReturn))
	mux.HandleFunc("POST /api/orders/{id}/refunds", h.requireKey(h.refundOrder))
	mux.HandleFunc("POST /api/orders/{id}/refunds/{refundID}/settle", h.requireKey(h.settleRefund))

	return mux
}

// withCustomer extracts the customer identity header.
func (h *Handler) withCustomer(next func(w http.ResponseWriter, r *http.Request, customerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := r.Header.Get("X-Customer-ID")
		if customerID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Customer-ID header")
			return
		}
		next(w, r, customerID)
	}
}

// withOrderReader resolves who may read an order: a valid api_key grants
// back-office access to any order (empty customerID), otherwise the caller
// must present a customer identity and own the order.
func (h *Handler) withOrderReader(next func(w http.ResponseWriter, r *http.Request, customerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("api_key"); key != "" {
			if _, err := auth.Verify(r.Context(), h.apikeys, key); err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r, "")
			return
		}

		customerID := r.Header.Get("X-Customer-ID")
		if customerID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Customer-ID header")
			return
		}
		next(w, r, customerID)
	}
}

// requireKey authenticates back-office routes with the api_key header.
func (h *Handler) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing api_key header")
			return
		}
		if _, err := auth.Verify(r.Context(), h.apikeys, key); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
