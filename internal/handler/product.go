package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vendora/checkout/internal/domain/inventory"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encProduct(e, p)
		}
	})
	writeEncoded(w, http.StatusOK, e)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encProduct(e, *p)
	writeEncoded(w, http.StatusOK, e)
}

func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity  int    `json:"quantity"`
		Operation string `json:"operation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	op := inventory.Op(req.Operation)
	if op != inventory.OpAdd && op != inventory.OpSubtract {
		writeError(w, http.StatusUnprocessableEntity, "operation must be add or subtract")
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must not be negative")
		return
	}

	updated, err := h.ledger.Adjust(r.Context(), r.PathValue("id"), req.Quantity, op)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(r.PathValue("id")) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(updated) })
	})
	writeEncoded(w, http.StatusOK, e)
}
