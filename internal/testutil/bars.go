// Package testutil builds synthetic price histories for tests.
package testutil

import (
	"math"
	"math/rand"
	"time"

	"seismograph/internal/domain/models"
)

// Start is the first date of every synthetic series.
var Start = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// Bars turns closes into daily bars starting at Start, one calendar day apart.
func Bars(closes []float64) []models.PriceBar {
	return BarsFrom(Start, closes)
}

// BarsFrom turns closes into daily bars starting at start.
func BarsFrom(start time.Time, closes []float64) []models.PriceBar {
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

// RandomWalk returns n closes of a seeded geometric random walk.
func RandomWalk(seed int64, n int, start, drift, vol float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := start
	for i := range out {
		if i > 0 {
			price *= math.Exp(drift + vol*rng.NormFloat64())
		}
		out[i] = price
	}
	return out
}

// Geometric returns n closes growing at a constant rate from `from` to `to`.
func Geometric(from, to float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = from
		return out
	}
	g := math.Pow(to/from, 1/float64(n-1))
	price := from
	for i := range out {
		out[i] = price
		price *= g
	}
	return out
}

// Linear returns n closes moving in equal steps from `from` to `to`.
func Linear(from, to float64, n int) []float64 {
	out := make([]float64, n)
	step := 0.0
	if n > 1 {
		step = (to - from) / float64(n-1)
	}
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

// Flat returns n identical closes.
func Flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Concat joins close segments.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
