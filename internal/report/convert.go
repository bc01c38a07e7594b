package report

import "math"

// Convert converts an integer minor-unit amount from one currency to
// another, pivoting through the reference currency. There is no pairwise
// rate table: a cross-currency conversion composes the two
// reference-relative rates.
//
// The same-currency case returns the input untouched so the common path
// has no rounding drift. Everything else rounds half away from zero; this
// is the only place in the codebase that rounds a conversion, so every
// call site behaves identically.
func Convert(amount int64, from, to string, rates Rates) int64 {
	if from == to {
		return amount
	}
	return roundHalfAway(float64(amount) * rates.For(to) / rates.For(from))
}

// roundHalfAway rounds to the nearest integer with ties away from zero,
// which is exactly math.Round's contract.
func roundHalfAway(v float64) int64 {
	return int64(math.Round(v))
}
