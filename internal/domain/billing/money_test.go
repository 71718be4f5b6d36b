package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemAmountCents(t *testing.T) {
	tests := []struct {
		name           string
		quantity       float64
		unitPriceCents int64
		want           int64
	}{
		{"whole quantity", 2, 5000, 10000},
		{"single unit", 1, 2500, 2500},
		{"fractional quantity", 1.5, 10000, 15000},
		{"rounds half up", 0.125, 100, 13},
		{"zero price", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ItemAmountCents(tt.quantity, tt.unitPriceCents))
		})
	}
}

func TestTaxCents(t *testing.T) {
	// Items [{2, 50.00}, {1, 25.00}] at 10% tax: 125.00 / 12.50 / 137.50.
	subtotal := ItemAmountCents(2, 5000) + ItemAmountCents(1, 2500)
	assert.Equal(t, int64(12500), subtotal)

	tax := TaxCents(subtotal, 10)
	assert.Equal(t, int64(1250), tax)
	assert.Equal(t, int64(13750), subtotal+tax)
}

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(13750), ToCents(137.50))
	assert.Equal(t, 137.50, FromCents(13750))
	assert.Equal(t, int64(1), ToCents(0.005))
}
