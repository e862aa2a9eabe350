// Package promo maps promo codes to discount rates. The table is static
// configuration; applying a code derives a cart-level discount from the
// subtotal at apply time.
package promo

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// defaultRates seed the ledger when no promos are configured.
var defaultRates = map[string]float64{
	"POOJA20":  0.20,
	"DIWALI10": 0.10,
	"NAVRATRI": 0.15,
}

type Ledger struct {
	rates map[string]float64
}

// NewLedger builds a ledger from the "promos" config map, falling back to
// the built-in table. Rates outside (0,1] are skipped. Codes are matched
// case-insensitively (viper lowercases config keys).
func NewLedger(v *viper.Viper) *Ledger {
	configured := v.GetStringMap("promos")
	if len(configured) == 0 {
		return NewStaticLedger(defaultRates)
	}

	rates := make(map[string]float64, len(configured))
	for code := range configured {
		rate := v.GetFloat64("promos." + code)
		if rate <= 0 || rate > 1 {
			continue
		}
		rates[strings.ToUpper(code)] = rate
	}
	return &Ledger{rates: rates}
}

// NewStaticLedger builds a ledger directly from a rate table.
func NewStaticLedger(rates map[string]float64) *Ledger {
	if len(rates) == 0 {
		rates = defaultRates
	}
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	return &Ledger{rates: normalized}
}

// Rate returns the discount rate for code, or false for unknown codes.
func (l *Ledger) Rate(code string) (float64, bool) {
	rate, ok := l.rates[strings.ToUpper(code)]
	return rate, ok
}

// Discount computes round-half-up(subtotal × rate) to the nearest integer
// currency unit.
func Discount(subtotal, rate float64) float64 {
	d := decimal.NewFromFloat(subtotal).
		Mul(decimal.NewFromFloat(rate)).
		Round(0)
	out, _ := d.Float64()
	return out
}
