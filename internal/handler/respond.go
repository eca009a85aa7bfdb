package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vendora/checkout/internal/domain/auth"
	"github.com/vendora/checkout/internal/domain/cart"
	"github.com/vendora/checkout/internal/domain/catalog"
	"github.com/vendora/checkout/internal/domain/coupon"
	"github.com/vendora/checkout/internal/domain/inventory"
	"github.com/vendora/checkout/internal/domain/order"
	"github.com/vendora/checkout/internal/domain/payment"
	"github.com/vendora/checkout/internal/domain/pricing"
)

// writeEncoded sends a jx-encoded document.
func writeEncoded(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError sends the uniform error body.
func writeError(w http.ResponseWriter, status int, message string) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	writeEncoded(w, status, e)
}

// writeDomainError maps a domain error to its HTTP status: not-found 404,
// forbidden 403, validation 422, conflict 409, unavailable 409, anything
// unrecognized 500 with a generic body.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	// Not found.
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrCouponNotFound),
		errors.Is(err, order.ErrReturnNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	// Forbidden.
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, order.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())

	// Validation.
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrMinimumNotMet),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponUsageLimitReached),
		errors.Is(err, pricing.ErrUnknownShippingMethod),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidRefundAmount),
		errors.Is(err, inventory.ErrUnknownProduct):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	// Conflict.
	case errors.Is(err, cart.ErrDuplicateCoupon),
		errors.Is(err, cart.ErrNotActive),
		errors.Is(err, order.ErrNotReturnable),
		errors.Is(err, order.ErrReturnAlreadyResolved),
		errors.Is(err, order.ErrRefundExceedsBalance),
		errors.Is(err, order.ErrRefundAlreadySettled),
		errors.Is(err, order.ErrOrderNotPaid),
		errors.Is(err, order.ErrSellerNotFound),
		errors.Is(err, payment.ErrDeclined):
		writeError(w, http.StatusConflict, err.Error())

	default:
		var (
			unavailable  *order.UnavailableItemsError
			insufficient *inventory.InsufficientStockError
			productGone  *cart.ProductUnavailableError
			transition   *order.TransitionError
		)
		switch {
		case errors.As(err, &unavailable),
			errors.As(err, &insufficient),
			errors.As(err, &productGone),
			errors.As(err, &transition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

// decodeBody parses the JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}
