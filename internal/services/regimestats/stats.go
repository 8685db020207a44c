// Package regimestats summarizes how long labels persist and what prices did
// around them.
package regimestats

import (
	"math"
	"sort"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/features"
)

// LabelFunc picks the label a block is built on.
type LabelFunc func(models.MarketState) string

// ByRegime labels states by coarse regime.
func ByRegime(s models.MarketState) string { return string(s.Regime) }

// ByPhase labels states by fine phase.
func ByPhase(s models.MarketState) string { return string(s.Phase) }

// RegimeOrder and PhaseOrder are the display orders of the two label sets.
var (
	RegimeOrder = func() []string {
		out := make([]string, len(models.Regimes))
		for i, r := range models.Regimes {
			out[i] = string(r)
		}
		return out
	}()
	PhaseOrder = func() []string {
		out := make([]string, len(models.Phases))
		for i, p := range models.Phases {
			out[i] = string(p)
		}
		return out
	}()
)

// DefaultHorizons are the bar offsets for forward and backward returns.
var DefaultHorizons = []int{10, 30, 90}

// Options selects the label and horizons of a stats table.
type Options struct {
	Label    LabelFunc
	Order    []string
	Horizons []int
}

// RegimeOptions builds a coarse regime table.
func RegimeOptions() Options {
	return Options{Label: ByRegime, Order: RegimeOrder, Horizons: DefaultHorizons}
}

// PhaseOptions builds a fine phase table.
func PhaseOptions() Options {
	return Options{Label: ByPhase, Order: PhaseOrder, Horizons: DefaultHorizons}
}

// Blocks splits states into maximal runs of one label.
func Blocks(states []models.MarketState, label LabelFunc) []models.RegimeBlock {
	var out []models.RegimeBlock
	for i := 0; i < len(states); {
		l := label(states[i])
		j := i
		for j+1 < len(states) && label(states[j+1]) == l {
			j++
		}
		out = append(out, models.RegimeBlock{
			Label:      l,
			Start:      states[i].Date,
			End:        states[j].Date,
			StartIndex: i,
			Bars:       j - i + 1,
		})
		i = j + 1
	}
	return out
}

// Compute builds the duration, frequency and return table of states.
func Compute(states []models.MarketState, opts Options) *models.RegimeStats {
	if opts.Label == nil {
		opts.Label = ByRegime
	}
	if opts.Horizons == nil {
		opts.Horizons = DefaultHorizons
	}

	blocks := Blocks(states, opts.Label)
	byLabel := make(map[string][]models.RegimeBlock)
	for _, b := range blocks {
		byLabel[b.Label] = append(byLabel[b.Label], b)
	}

	table := &models.RegimeStats{TotalBars: len(states)}
	for _, label := range labelOrder(byLabel, opts.Order) {
		table.Rows = append(table.Rows, row(label, byLabel[label], states, opts.Horizons))
	}
	return table
}

// labelOrder lists labels in the given order, then any others sorted.
func labelOrder(byLabel map[string][]models.RegimeBlock, order []string) []string {
	seen := make(map[string]bool, len(order))
	var out []string
	for _, l := range order {
		seen[l] = true
		if _, ok := byLabel[l]; ok {
			out = append(out, l)
		}
	}
	var rest []string
	for l := range byLabel {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func row(label string, blocks []models.RegimeBlock, states []models.MarketState, horizons []int) models.RegimeStatsRow {
	durations := make([]float64, len(blocks))
	bars := 0
	var change float64
	for i, b := range blocks {
		durations[i] = float64(b.Bars)
		bars += b.Bars
		end := b.StartIndex + b.Bars - 1
		change += states[end].Close/states[b.StartIndex].Close - 1
	}
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)

	r := models.RegimeStatsRow{
		Label:              label,
		Blocks:             len(blocks),
		Bars:               bars,
		MinDuration:        int(sorted[0]),
		MeanDuration:       features.Mean(durations),
		MedianDuration:     quantile(sorted, 0.5),
		P95Duration:        quantile(sorted, 0.95),
		MaxDuration:        int(sorted[len(sorted)-1]),
		StdDuration:        features.StdDev(durations),
		AvgChangeDuringPct: change / float64(len(blocks)) * 100,
		ForwardReturns:     make(map[int]float64),
		BackwardReturns:    make(map[int]float64),
	}
	if len(states) > 0 {
		r.FrequencyPct = float64(bars) / float64(len(states)) * 100
	}

	for _, h := range horizons {
		var fwd, bwd []float64
		for _, b := range blocks {
			s := b.StartIndex
			if s+h < len(states) {
				fwd = append(fwd, states[s+h].Close/states[s].Close-1)
			}
			if s-h >= 0 {
				bwd = append(bwd, states[s].Close/states[s-h].Close-1)
			}
		}
		if len(fwd) > 0 {
			r.ForwardReturns[h] = features.Mean(fwd) * 100
		}
		if len(bwd) > 0 {
			r.BackwardReturns[h] = features.Mean(bwd) * 100
		}
	}
	return r
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
