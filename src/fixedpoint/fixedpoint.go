// Package fixedpoint converts decimal domain values (prices, rates,
// quantities, costs) to and from exact scaled integers. Values are stored
// as value*10^4 rounded half-away-from-zero, which keeps repeated
// additions across thousands of price and rate points free of float drift.
//
// Scale and Unscale are the only decimal<->integer conversion points in the
// codebase; everything else operates on already-scaled int64 values and
// unscales only for presentation.
package fixedpoint

import "github.com/shopspring/decimal"

// Digits is the number of fractional decimal digits preserved by scaling.
const Digits = 4

var factor = decimal.New(1, Digits) // 10^4

// Scale converts a decimal value to its scaled integer representation,
// rounding half away from zero (0.00005 scales to 1, not 0). Inputs with
// more than four fractional digits lose the excess precision.
func Scale(d decimal.Decimal) int64 {
	return d.Mul(factor).Round(0).IntPart()
}

// ScaleFloat scales a float64. Conversion goes through decimal so that
// values like 1.25435 scale by their shortest decimal representation
// rather than their binary expansion.
func ScaleFloat(f float64) int64 {
	return Scale(decimal.NewFromFloat(f))
}

// ScaleString scales a decimal string such as "5.2667".
func ScaleString(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return Scale(d), nil
}

// Unscale converts a scaled integer back to its exact decimal value.
// No rounding occurs: Unscale(Scale(x)) == x for any x with at most four
// fractional digits.
func Unscale(n int64) decimal.Decimal {
	return decimal.New(n, -Digits)
}

// UnscaleFloat returns the unscaled value as a float64 for presentation.
func UnscaleFloat(n int64) float64 {
	f, _ := Unscale(n).Float64()
	return f
}
