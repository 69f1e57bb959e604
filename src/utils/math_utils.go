package utils

import "math"

// MinInt returns the smaller of two integers.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Round2 rounds to two decimal places, the currency precision used across the
// engine. Monetary sums are accumulated in full precision and rounded once at
// the end, never per addend.
func Round2(val float64) float64 {
	return RoundFloat(val, 2)
}

// Round1 rounds to one decimal place, the precision used for growth and delta
// percentages.
func Round1(val float64) float64 {
	return RoundFloat(val, 1)
}
