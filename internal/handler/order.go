package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/order"
)

func (h *Handler) respondOrder(w http.ResponseWriter, status int, o *order.Order) {
	e := &jx.Encoder{}
	encOrder(e, o)
	writeEncoded(w, status, e)
}

type addressReq struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (a addressReq) domain() order.Address {
	return order.Address{
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		Billing       addressReq `json:"billing"`
		Shipping      addressReq `json:"shipping"`
		PaymentMethod string     `json:"paymentMethod"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Checkout(r.Context(), customerID, order.CheckoutRequest{
		Addresses: order.Addresses{
			Billing:  req.Billing.domain(),
			Shipping: req.Shipping.domain(),
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, customerID string) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) getOrderSellers(w http.ResponseWriter, r *http.Request, customerID string) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encSellers(e, o.Sellers())
	writeEncoded(w, http.StatusOK, e)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Cancel(r.Context(), r.PathValue("id"), customerID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Actor   string `json:"actor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = "system"
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), order.Status(req.Status), req.Message, req.Actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) updateSellerStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Actor  string `json:"actor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sellerID := r.PathValue("sellerID")
	if req.Actor == "" {
		req.Actor = sellerID
	}

	o, err := h.orders.UpdateSellerStatus(r.Context(), r.PathValue("id"), sellerID, order.Status(req.Status), req.Actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request, customerID string) {
	var req struct {
		ItemIDs []string `json:"itemIds"`
		Reason  string   `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ret, err := h.orders.RequestReturn(r.Context(), r.PathValue("id"), customerID, req.ItemIDs, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encReturn(e, ret)
	writeEncoded(w, http.StatusCreated, e)
}

func (h *Handler) completeReturn(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.CompleteReturn(r.Context(), r.PathValue("id"), r.PathValue("returnID"), "back-office")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) rejectReturn(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.RejectReturn(r.Context(), r.PathValue("id"), r.PathValue("returnID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Refund(r.Context(), r.PathValue("id"), req.Amount, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}

func (h *Handler) settleRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.SettleRefund(r.Context(), r.PathValue("id"), r.PathValue("refundID"), order.RefundStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondOrder(w, http.StatusOK, o)
}
