package odds

// RemoveVig normalizes implied probabilities of mutually exclusive outcomes
// so they sum to 1.0 (proportional method). Any non-positive input yields nil.
func RemoveVig(implied ...float64) []float64 {
	var total float64
	for _, p := range implied {
		if p <= 0 {
			return nil
		}
		total += p
	}
	if total <= 0 {
		return nil
	}

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = p / total
	}
	return fair
}

// Overround is Σ(1/price) − 1 over a complete set of outcomes. Positive values
// are the bookmaker margin; negative values mean the set is an arbitrage.
func Overround(prices ...float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += DecimalToImplied(p)
	}
	return sum - 1
}
