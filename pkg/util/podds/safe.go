package podds

import "math"

// safeDiv divides a by b, treating a zero divisor as 1
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return a
	}
	return a / b
}

// safeLambda replaces a NaN or infinite goal expectancy with fallback and floors the result
func safeLambda(lambda, fallback, floor float64) float64 {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		lambda = fallback
	}
	if lambda < floor {
		return floor
	}
	return lambda
}

// round rounds v to the given number of decimal places
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
