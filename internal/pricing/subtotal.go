// Package pricing holds the pure money math for carts: subtotal derivation
// and the structural filter that keeps malformed stored lines out of it.
package pricing

import (
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Valid reports whether a line is structurally sound: it names a product,
// carries a positive quantity and a non-negative price. Lines written by
// older buggy clients or torn writes can miss any of these.
func Valid(item domain.LineItem) bool {
	return item.Product != "" && item.Quantity >= 1 && item.Price >= 0
}

// Reconcile filters out structurally invalid lines and returns the kept
// lines, their subtotal and how many lines were dropped. Summation goes
// through decimal so repeated float additions cannot drift the total.
func Reconcile(items []domain.LineItem) ([]domain.LineItem, float64, int) {
	kept := make([]domain.LineItem, 0, len(items))
	sum := decimal.Zero

	for _, item := range items {
		if !Valid(item) {
			continue
		}
		kept = append(kept, item)
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}

	subtotal, _ := sum.Float64()
	return kept, subtotal, len(items) - len(kept)
}

// Subtotal is Reconcile without the filter bookkeeping.
func Subtotal(items []domain.LineItem) float64 {
	_, subtotal, _ := Reconcile(items)
	return subtotal
}

// Extend adds quantity × price to subtotal.
func Extend(subtotal, price float64, quantity int) float64 {
	out, _ := decimal.NewFromFloat(subtotal).
		Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))).
		Float64()
	return out
}
