//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_NoIdentity(t *testing.T) {
	resp := doGet(t, "/api/cart", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_AddAndTotals(t *testing.T) {
	cust := asCustomer("it-cart-totals")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "kb-001", "quantity": 2}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[cartResponse](t, resp)
	if c.Status != "active" {
		t.Errorf("status: got %q, want active", c.Status)
	}
	if c.Totals.Subtotal != 240 {
		t.Errorf("subtotal: got %v, want 240", c.Totals.Subtotal)
	}

	resp2 := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "bl-102", "quantity": 1}, cust)
	defer resp2.Body.Close()

	c = decodeJSON[cartResponse](t, resp2)
	if c.Totals.Subtotal != 335 {
		t.Errorf("subtotal after second item: got %v, want 335", c.Totals.Subtotal)
	}
	if len(c.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(c.Items))
	}
}

func TestCart_CouponMinimumNotMet(t *testing.T) {
	cust := asCustomer("it-cart-coupon-min")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "ms-002", "quantity": 1}, cust)
	resp.Body.Close()

	// SAVE10 requires a 500 subtotal; a 45 cart must be rejected.
	resp = do(t, http.MethodPost, "/api/cart/coupons",
		map[string]any{"code": "SAVE10"}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_FixedCoupon(t *testing.T) {
	cust := asCustomer("it-cart-coupon-fixed")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "kb-001", "quantity": 1}, cust)
	resp.Body.Close()

	resp = do(t, http.MethodPost, "/api/cart/coupons",
		map[string]any{"code": "FLAT50"}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[cartResponse](t, resp)
	if c.Totals.Discount != 50 {
		t.Errorf("discount: got %v, want 50", c.Totals.Discount)
	}
	if c.Totals.Total != 70 {
		t.Errorf("total: got %v, want 70", c.Totals.Total)
	}

	// The same code cannot be applied twice.
	resp2 := do(t, http.MethodPost, "/api/cart/coupons",
		map[string]any{"code": "FLAT50"}, cust)
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp2.StatusCode)
	}
}

func TestCart_FreeShippingCapturesCost(t *testing.T) {
	cust := asCustomer("it-cart-freeship")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "kb-001", "quantity": 1}, cust)
	resp.Body.Close()

	resp = do(t, http.MethodPut, "/api/cart/shipping",
		map[string]any{"method": "express"}, cust)
	resp.Body.Close()

	resp = do(t, http.MethodPost, "/api/cart/coupons",
		map[string]any{"code": "FREESHIP"}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[cartResponse](t, resp)
	if c.Totals.Shipping != 150 {
		t.Errorf("shipping: got %v, want 150", c.Totals.Shipping)
	}
	if c.Totals.Discount != 150 {
		t.Errorf("discount: got %v, want 150", c.Totals.Discount)
	}
	if c.Totals.Total != 120 {
		t.Errorf("total: got %v, want 120", c.Totals.Total)
	}
}

func TestCart_UnknownShippingMethod(t *testing.T) {
	cust := asCustomer("it-cart-badship")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "mg-101", "quantity": 1}, cust)
	resp.Body.Close()

	resp = do(t, http.MethodPut, "/api/cart/shipping",
		map[string]any{"method": "teleport"}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_DraftProductRejected(t *testing.T) {
	cust := asCustomer("it-cart-draft")

	resp := do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"productId": "ps-201", "quantity": 1}, cust)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
