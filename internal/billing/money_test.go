package billing

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func checkAmounts(t *testing.T, got, want LineAmounts) {
	t.Helper()
	if !almostEqual(got.Subtotal, want.Subtotal) ||
		!almostEqual(got.Tax, want.Tax) ||
		!almostEqual(got.Total, want.Total) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestComputeLine(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		unitPrice float64
		taxRate   float64
		want      LineAmounts
	}{
		{
			name:     "three nights at standard rate",
			quantity: 3, unitPrice: 100000, taxRate: 0.19,
			want: LineAmounts{Subtotal: 300000, Tax: 57000, Total: 357000},
		},
		{
			name:     "single unit",
			quantity: 1, unitPrice: 150000, taxRate: 0.19,
			want: LineAmounts{Subtotal: 150000, Tax: 28500, Total: 178500},
		},
		{
			name:     "free line",
			quantity: 2, unitPrice: 0, taxRate: 0.19,
			want: LineAmounts{Subtotal: 0, Tax: 0, Total: 0},
		},
		{
			name:     "tax rounded to two decimals",
			quantity: 3, unitPrice: 33.33, taxRate: 0.19,
			want: LineAmounts{Subtotal: 99.99, Tax: 19, Total: 118.99},
		},
		{
			name:     "zero tax rate",
			quantity: 4, unitPrice: 25000, taxRate: 0,
			want: LineAmounts{Subtotal: 100000, Tax: 0, Total: 100000},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeLine(tc.quantity, tc.unitPrice, tc.taxRate)
			if err != nil {
				t.Fatalf("ComputeLine: %v", err)
			}
			checkAmounts(t, got, tc.want)
		})
	}
}

func TestComputeLineRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		unitPrice float64
	}{
		{name: "zero quantity", quantity: 0, unitPrice: 100},
		{name: "negative quantity", quantity: -2, unitPrice: 100},
		{name: "negative unit price", quantity: 1, unitPrice: -0.01},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeLine(tc.quantity, tc.unitPrice, 0.19)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
			if got != (LineAmounts{}) {
				t.Fatalf("amounts must be zero on error, got %+v", got)
			}
		})
	}
}

// Aggregating per-line amounts must preserve per-line rounding; summing the
// lines is not the same as taxing the summed subtotal.
func TestLineAggregationPreservesRounding(t *testing.T) {
	a, err := ComputeLine(1, 10.01, 0.19)
	if err != nil {
		t.Fatalf("line a: %v", err)
	}
	b, err := ComputeLine(1, 10.02, 0.19)
	if err != nil {
		t.Fatalf("line b: %v", err)
	}
	if !almostEqual(a.Tax+b.Tax, 3.80) {
		t.Fatalf("summed tax = %v, want 3.80", a.Tax+b.Tax)
	}
	// 19% of the summed subtotal would be 3.8057 before rounding; per-line
	// rounding is what keeps the aggregate at 3.80.
	if !almostEqual(a.Total+b.Total, (a.Subtotal+b.Subtotal)+(a.Tax+b.Tax)) {
		t.Fatalf("totals do not add up: %v vs %v",
			a.Total+b.Total, (a.Subtotal+b.Subtotal)+(a.Tax+b.Tax))
	}
}
