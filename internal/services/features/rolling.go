package features

import "math"

// PctReturns computes simple returns r_t = C_t / C_{t-1} - 1.
// The result has the same length as closes; r_0 is 0.
func PctReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			continue
		}
		out[i] = closes[i]/prev - 1
	}
	return out
}

// StdDev is the sample standard deviation (n-1 denominator) of xs.
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// RollingStd returns the standard deviation of returns[i-window+1..i] for
// every i >= window, and NaN before that. returns[0] is never part of a window.
func RollingStd(returns []float64, window int) []float64 {
	out := make([]float64, len(returns))
	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = StdDev(returns[i-window+1 : i+1])
	}
	return out
}

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Max returns the largest element of xs.
func Max(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// RollingDrawdown returns close/peak-1 where peak is the highest close in the
// trailing window. Partial windows are used at the start of the series.
func RollingDrawdown(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		peak := Max(closes[lo : i+1])
		if peak > 0 {
			out[i] = closes[i]/peak - 1
		}
	}
	return out
}

// PercentileRank ranks the last sample of xs against the samples before it.
// Earlier ties rank below the current sample. The result is in [0,100];
// a single sample ranks 0.
func PercentileRank(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	cur := xs[n-1]
	below := 0
	for _, x := range xs[:n-1] {
		if x <= cur {
			below++
		}
	}
	return float64(below) / float64(n-1) * 100
}
