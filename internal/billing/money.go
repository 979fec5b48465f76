package billing

import (
	"fmt"
	"math"
)

// LineAmounts carries the three derived amounts of an invoice line.  The
// invoice's own aggregates are always the sum of these per line, never a
// re-application of the tax rate to the invoice subtotal, so per-line
// rounding survives aggregation.
type LineAmounts struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// ComputeLine calculates subtotal, tax and total for quantity units at
// unitPrice.  The tax is rounded to 2 decimals; subtotal and total keep the
// exact product.  quantity must be positive and unitPrice non-negative;
// taxRate comes from configuration and is validated at startup.
func ComputeLine(quantity int, unitPrice, taxRate float64) (LineAmounts, error) {
	if quantity < 1 {
		return LineAmounts{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity)
	}
	if unitPrice < 0 {
		return LineAmounts{}, fmt.Errorf("%w: unit price must not be negative, got %.2f", ErrInvalidInput, unitPrice)
	}
	subtotal := float64(quantity) * unitPrice
	tax := round2(subtotal * taxRate)
	return LineAmounts{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
