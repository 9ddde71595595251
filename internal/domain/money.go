package domain

import "math"

// CentsFromUnits converts a decimal amount to integer cents.
func CentsFromUnits(units float64) int64 {
	return int64(math.Round(units * 100))
}

// UnitsFromCents converts integer cents to a decimal amount.
func UnitsFromCents(cents int64) float64 {
	return float64(cents) / 100
}
