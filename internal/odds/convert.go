package odds

import "math"

// DecimalToImplied converts decimal odds to implied probability (1/price).
// Returns 0 for prices that cannot be a real quote.
func DecimalToImplied(price float64) float64 {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return 1 / price
}

// AmericanToImplied converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func AmericanToImplied(odds int) float64 {
	if odds == 0 {
		return 0
	}

	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0)
	}
	return math.Abs(float64(odds)) / (math.Abs(float64(odds)) + 100.0)
}

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -200 → 1.50
func AmericanToDecimal(odds int) float64 {
	switch {
	case odds > 0:
		return 1 + float64(odds)/100
	case odds < 0:
		return 1 + 100/math.Abs(float64(odds))
	default:
		return 0
	}
}

// DecimalToAmerican converts decimal odds to rounded American odds.
func DecimalToAmerican(price float64) int {
	if price <= 1 {
		return 0
	}
	if price >= 2 {
		return int(math.Round((price - 1) * 100))
	}
	return int(math.Round(-100 / (price - 1)))
}
