package billing

import "math"

const msPerHour = 3600000

// ToCents converts a display-precision amount to cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts cents to a display-precision amount. This is the single
// rounding point for monetary output; intermediate sums stay in cents.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// ItemAmountCents computes a line amount from quantity and unit price.
func ItemAmountCents(quantity float64, unitPriceCents int64) int64 {
	return int64(math.Round(quantity * float64(unitPriceCents)))
}

// TaxCents computes tax on a subtotal at the given percentage rate.
func TaxCents(subtotalCents int64, taxRate float64) int64 {
	return int64(math.Round(float64(subtotalCents) * taxRate / 100))
}
