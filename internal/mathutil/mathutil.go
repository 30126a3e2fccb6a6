package mathutil

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopulationVariance returns Σ(x-mean)²/n. Never negative.
func PopulationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sumSquaredDeviations(xs) / float64(len(xs))
}

// SampleVariance returns Σ(x-mean)²/(n-1), or 0 when fewer than two values.
func SampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return sumSquaredDeviations(xs) / float64(len(xs)-1)
}

func sumSquaredDeviations(xs []float64) float64 {
	// Identical inputs have exactly zero spread, whatever the mean rounds to.
	if lo, hi := MinMax(xs); lo == hi {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss
}

// Median returns the middle value (mean of the two middle values for even n).
// The input slice is not modified.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MinMax returns the smallest and largest values in xs.
func MinMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
