package services

import "math"

// round2 rounds a monetary amount to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a monetary amount to the smallest currency unit. Rounding
// matters here: a plain int64 cast truncates, and amounts like 19.99 sit
// just below their cent value in float64.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}
