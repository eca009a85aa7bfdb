package handler

import (
	"sort"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/vendora/checkout/internal/domain/cart"
	"github.com/vendora/checkout/internal/domain/catalog"
	"github.com/vendora/checkout/internal/domain/order"
	"github.com/vendora/checkout/internal/domain/pricing"
)

func encDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encTimePtr(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	encTime(e, *t)
}

func encTotals(e *jx.Encoder, t pricing.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encDecimal(e, t.Subtotal) })
		e.Field("discount", func(e *jx.Encoder) { encDecimal(e, t.Discount) })
		e.Field("shipping", func(e *jx.Encoder) { encDecimal(e, t.Shipping) })
		e.Field("tax", func(e *jx.Encoder) { encDecimal(e, t.Tax) })
		e.Field("total", func(e *jx.Encoder) { encDecimal(e, t.Total) })
	})
}

func encVariation(e *jx.Encoder, variation map[string]string) {
	e.Obj(func(e *jx.Encoder) {
		for _, k := range sortedKeys(variation) {
			e.Field(k, func(e *jx.Encoder) { e.Str(variation[k]) })
		}
	})
}

func encProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("sellerId", func(e *jx.Encoder) { e.Str(p.SellerID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encDecimal(e, p.Price) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("stockStatus", func(e *jx.Encoder) { e.Str(string(p.StockStatus())) })
	})
}

func encCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(c.CustomerID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(c.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range c.Items {
					encCartItem(e, &c.Items[i])
				}
			})
		})
		e.Field("coupons", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ap := range c.Coupons {
					e.Obj(func(e *jx.Encoder) {
						e.Field("code", func(e *jx.Encoder) { e.Str(ap.Code) })
						e.Field("type", func(e *jx.Encoder) { e.Str(string(ap.Type)) })
						e.Field("discountAmount", func(e *jx.Encoder) { encDecimal(e, ap.Discount) })
					})
				}
			})
		})
		e.Field("shipping", func(e *jx.Encoder) {
			if c.Shipping == nil {
				e.Null()
				return
			}
			e.Obj(func(e *jx.Encoder) {
				e.Field("method", func(e *jx.Encoder) { e.Str(string(c.Shipping.Method)) })
				e.Field("cost", func(e *jx.Encoder) { encDecimal(e, c.Shipping.Cost) })
			})
		})
		e.Field("totals", func(e *jx.Encoder) { encTotals(e, c.Totals) })
		e.Field("expiresAt", func(e *jx.Encoder) { encTime(e, c.ExpiresAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encTime(e, c.UpdatedAt) })
	})
}

func encCartItem(e *jx.Encoder, it *cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("sellerId", func(e *jx.Encoder) { e.Str(it.SellerID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("unitPrice", func(e *jx.Encoder) { encDecimal(e, it.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		if len(it.Variation) > 0 {
			e.Field("variation", func(e *jx.Encoder) { encVariation(e, it.Variation) })
		}
		e.Field("subtotal", func(e *jx.Encoder) { encDecimal(e, it.Subtotal) })
		e.Field("isAvailable", func(e *jx.Encoder) { e.Bool(it.Available) })
		if it.AvailabilityReason != "" {
			e.Field("availabilityReason", func(e *jx.Encoder) { e.Str(it.AvailabilityReason) })
		}
	})
}

func encOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(o.OrderNumber) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range o.Items {
					encOrderItem(e, &o.Items[i])
				}
			})
		})
		e.Field("pricing", func(e *jx.Encoder) { encTotals(e, o.Pricing) })
		e.Field("addresses", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("billing", func(e *jx.Encoder) { encAddress(e, o.Addresses.Billing) })
				e.Field("shipping", func(e *jx.Encoder) { encAddress(e, o.Addresses.Shipping) })
			})
		})
		e.Field("payment", func(e *jx.Encoder) { encPayment(e, &o.Payment) })
		e.Field("timeline", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, entry := range o.Timeline {
					e.Obj(func(e *jx.Encoder) {
						e.Field("status", func(e *jx.Encoder) { e.Str(string(entry.Status)) })
						e.Field("message", func(e *jx.Encoder) { e.Str(entry.Message) })
						e.Field("actor", func(e *jx.Encoder) { e.Str(entry.Actor) })
						e.Field("timestamp", func(e *jx.Encoder) { encTime(e, entry.Timestamp) })
					})
				}
			})
		})
		e.Field("returns", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range o.Returns {
					encReturn(e, &o.Returns[i])
				}
			})
		})
		e.Field("confirmedAt", func(e *jx.Encoder) { encTimePtr(e, o.ConfirmedAt) })
		e.Field("shippedAt", func(e *jx.Encoder) { encTimePtr(e, o.ShippedAt) })
		e.Field("deliveredAt", func(e *jx.Encoder) { encTimePtr(e, o.DeliveredAt) })
		e.Field("cancelledAt", func(e *jx.Encoder) { encTimePtr(e, o.CancelledAt) })
		e.Field("createdAt", func(e *jx.Encoder) { encTime(e, o.CreatedAt) })
	})
}

func encOrderItem(e *jx.Encoder, it *order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("sellerId", func(e *jx.Encoder) { e.Str(it.SellerID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("unitPrice", func(e *jx.Encoder) { encDecimal(e, it.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		if len(it.Variation) > 0 {
			e.Field("variation", func(e *jx.Encoder) { encVariation(e, it.Variation) })
		}
		e.Field("subtotal", func(e *jx.Encoder) { encDecimal(e, it.Subtotal) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(it.Status)) })
		if it.TrackingNumber != "" {
			e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(it.TrackingNumber) })
		}
	})
}

func encAddress(e *jx.Encoder, a order.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(a.Name) })
		e.Field("line1", func(e *jx.Encoder) { e.Str(a.Line1) })
		if a.Line2 != "" {
			e.Field("line2", func(e *jx.Encoder) { e.Str(a.Line2) })
		}
		e.Field("city", func(e *jx.Encoder) { e.Str(a.City) })
		if a.Region != "" {
			e.Field("region", func(e *jx.Encoder) { e.Str(a.Region) })
		}
		e.Field("postalCode", func(e *jx.Encoder) { e.Str(a.PostalCode) })
		e.Field("country", func(e *jx.Encoder) { e.Str(a.Country) })
		if a.Phone != "" {
			e.Field("phone", func(e *jx.Encoder) { e.Str(a.Phone) })
		}
	})
}

func encPayment(e *jx.Encoder, p *order.Payment) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("method", func(e *jx.Encoder) { e.Str(p.Method) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
		if p.TransactionID != "" {
			e.Field("transactionId", func(e *jx.Encoder) { e.Str(p.TransactionID) })
		}
		e.Field("paidAmount", func(e *jx.Encoder) { encDecimal(e, p.PaidAmount) })
		e.Field("refunds", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range p.Refunds {
					e.Obj(func(e *jx.Encoder) {
						e.Field("refundId", func(e *jx.Encoder) { e.Str(r.ID) })
						e.Field("amount", func(e *jx.Encoder) { encDecimal(e, r.Amount) })
						e.Field("reason", func(e *jx.Encoder) { e.Str(r.Reason) })
						e.Field("status", func(e *jx.Encoder) { e.Str(string(r.Status)) })
						e.Field("processedAt", func(e *jx.Encoder) { encTimePtr(e, r.ProcessedAt) })
						e.Field("createdAt", func(e *jx.Encoder) { encTime(e, r.CreatedAt) })
					})
				}
			})
		})
	})
}

func encReturn(e *jx.Encoder, req *order.ReturnRequest) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(req.ID) })
		e.Field("itemIds", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range req.ItemIDs {
					e.Str(id)
				}
			})
		})
		e.Field("reason", func(e *jx.Encoder) { e.Str(req.Reason) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(req.Status)) })
		e.Field("requestedAt", func(e *jx.Encoder) { encTime(e, req.RequestedAt) })
		e.Field("resolvedAt", func(e *jx.Encoder) { encTimePtr(e, req.ResolvedAt) })
	})
}

func encSellers(e *jx.Encoder, sellers []order.SellerOrder) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range sellers {
			e.Obj(func(e *jx.Encoder) {
				e.Field("sellerId", func(e *jx.Encoder) { e.Str(s.SellerID) })
				e.Field("itemIds", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, id := range s.ItemIDs {
							e.Str(id)
						}
					})
				})
				e.Field("subtotal", func(e *jx.Encoder) { encDecimal(e, s.Subtotal) })
				e.Field("status", func(e *jx.Encoder) { e.Str(string(s.Status)) })
			})
		}
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
