package analysis

import "math"

// DefaultKellyCap is the largest bankroll fraction any single bet may take.
const DefaultKellyCap = 0.25

// KellyFraction returns the full-Kelly stake for decimal odds,
// f = (p*d - 1) / (d - 1), clamped to [0, cap]. It is exactly 0 when p <= 0
// or the price cannot pay out (d <= 1).
func KellyFraction(trueProb, decimalOdds, cap float64) float64 {
	if trueProb <= 0 || decimalOdds <= 1 || math.IsNaN(trueProb) || math.IsNaN(decimalOdds) {
		return 0
	}

	f := (trueProb*decimalOdds - 1) / (decimalOdds - 1)
	return math.Max(0, math.Min(f, cap))
}

// CalculateKellyDecimal computes Kelly for decimal odds
// f* = (p * d - 1) / (d - 1)
// where d = decimal odds, then scales by fraction (0.25 for quarter Kelly).
func CalculateKellyDecimal(trueProb, decimalOdds, fraction float64) float64 {
	return KellyFraction(trueProb, decimalOdds, 1.0) * fraction
}

// Edge is the relative advantage of a true probability over the price:
// (p - 1/d) / (1/d).
func Edge(trueProb, decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	implied := 1 / decimalOdds
	return (trueProb - implied) / implied
}

// ExpectedValue is the expected profit per unit staked: p*(d-1) - (1-p).
func ExpectedValue(trueProb, decimalOdds float64) float64 {
	return trueProb*(decimalOdds-1) - (1 - trueProb)
}
