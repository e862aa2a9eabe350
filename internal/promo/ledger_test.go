package promo

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLedger_KnownAndUnknownCodes(t *testing.T) {
	ledger := NewStaticLedger(nil)

	rate, ok := ledger.Rate("POOJA20")
	assert.True(t, ok)
	assert.Equal(t, 0.20, rate)

	_, ok = ledger.Rate("NOPE")
	assert.False(t, ok)
}

func TestLedger_CaseInsensitiveLookup(t *testing.T) {
	ledger := NewStaticLedger(map[string]float64{"Diwali10": 0.10})

	rate, ok := ledger.Rate("DIWALI10")
	assert.True(t, ok)
	assert.Equal(t, 0.10, rate)

	rate, ok = ledger.Rate("diwali10")
	assert.True(t, ok)
	assert.Equal(t, 0.10, rate)
}

func TestLedger_FromConfig(t *testing.T) {
	v := viper.New()
	v.Set("promos", map[string]interface{}{
		"festive25": 0.25,
		"broken":    1.5, // outside (0,1], skipped
		"zero":      0.0, // skipped
	})

	ledger := NewLedger(v)

	rate, ok := ledger.Rate("FESTIVE25")
	assert.True(t, ok)
	assert.Equal(t, 0.25, rate)

	_, ok = ledger.Rate("BROKEN")
	assert.False(t, ok)
	_, ok = ledger.Rate("ZERO")
	assert.False(t, ok)
}

func TestDiscount_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, 200.0, Discount(1000, 0.20))
	// 199 × 0.5 = 99.5 rounds up to 100
	assert.Equal(t, 100.0, Discount(199, 0.50))
	// 201 × 0.5 = 100.5 rounds up to 101
	assert.Equal(t, 101.0, Discount(201, 0.50))
	// 333 × 0.1 = 33.3 rounds down to 33
	assert.Equal(t, 33.0, Discount(333, 0.10))
	assert.Equal(t, 0.0, Discount(0, 0.20))
}
