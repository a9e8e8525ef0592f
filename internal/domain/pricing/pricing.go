// Package pricing computes order totals from cart line items.
package pricing

import (
	"github.com/example/eri-mobile-shop/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// Policy holds the store-configured pricing inputs
type Policy struct {
	TaxRate               decimal.Decimal `json:"tax_rate"`
	FreeShippingThreshold int             `json:"free_shipping_threshold"`
	ShippingFlat          int             `json:"shipping_flat"`
}

// Totals are amounts in the currency's minor unit
type Totals struct {
	Subtotal int `json:"subtotal"`
	Shipping int `json:"shipping"`
	Tax      int `json:"tax"`
	Total    int `json:"total"`
}

// Compute derives the order totals for items under policy.
// Tax is rounded half-up to the minor unit. Shipping is waived once the
// subtotal reaches a positive threshold. No items means zero totals.
func Compute(items []cart.LineItem, p Policy) Totals {
	if len(items) == 0 {
		return Totals{}
	}

	var t Totals
	for _, item := range items {
		t.Subtotal += item.LineTotal()
	}
	t.Shipping = Shipping(t.Subtotal, p)
	t.Tax = Tax(t.Subtotal, p.TaxRate)
	t.Total = t.Subtotal + t.Shipping + t.Tax
	return t
}

// Shipping returns the shipping charge for a subtotal
func Shipping(subtotal int, p Policy) int {
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFlat
}

// Tax returns subtotal * rate rounded half-up
func Tax(subtotal int, rate decimal.Decimal) int {
	// decimal.Round rounds half away from zero; subtotals are never negative
	return int(decimal.NewFromInt(int64(subtotal)).Mul(rate).Round(0).IntPart())
}
