package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vendora/checkout/internal/domain/cart"
	"github.com/vendora/checkout/internal/domain/pricing"
)

func (h *Handler) respondCart(w http.ResponseWriter, status int, c *cart.Cart) {
	e := &jx.Encoder{}
	encCart(e, c)
	writeEncoded(w, status, e)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.carts.Get(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		ProductID string            `json:"productId"`
		Variation map[string]string `json:"variation"`
		Quantity  int               `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.AddItem(r.Context(), customerID, req.ProductID, req.Variation, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), customerID, r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.carts.RemoveItem(r.Context(), customerID, r.PathValue("itemID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.carts.Clear(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.ApplyCoupon(r.Context(), customerID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.carts.RemoveCoupon(r.Context(), customerID, r.PathValue("code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) selectShipping(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		Method string `json:"method"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.SelectShipping(r.Context(), customerID, pricing.ShippingMethod(req.Method))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}

func (h *Handler) validateCart(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.carts.ValidateItems(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK, c)
}
