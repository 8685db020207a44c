// Package portfolio aggregates per-asset market states into one weighted
// portfolio risk state.
package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/regime"
)

const (
	// WeightTolerance is how far weights may sum away from 1.
	WeightTolerance = 1e-6
	// TopContributors caps the attribution list.
	TopContributors = 5
)

// Input is a set of weighted holdings with their latest states.
type Input struct {
	Assets []models.PortfolioAsset
}

// Validate rejects empty portfolios, negative weights and weights that do not
// sum to one.
func (in Input) Validate() error {
	if len(in.Assets) == 0 {
		return &models.ConfigError{Field: "assets", Reason: "portfolio cannot be empty"}
	}
	total := 0.0
	for _, a := range in.Assets {
		if a.Weight < 0 {
			return &models.ConfigError{Field: "weight", Reason: fmt.Sprintf("%s has negative weight %g", a.Symbol, a.Weight)}
		}
		total += a.Weight
	}
	if math.Abs(total-1) > WeightTolerance {
		return &models.ConfigError{Field: "weight", Reason: fmt.Sprintf("weights must sum to 1, got %.6f", total)}
	}
	return nil
}

// Compute returns the weighted criticality, its regime and the top risk
// contributors. Regime and RawRegime are equal; Series applies hysteresis.
func Compute(in Input, t regime.Thresholds) (*models.PortfolioState, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var crit float64
	var date time.Time
	contributors := make([]models.RiskContributor, 0, len(in.Assets))
	for _, a := range in.Assets {
		c := a.Weight * a.State.Criticality
		crit += c
		if a.State.Date.After(date) {
			date = a.State.Date
		}
		contributors = append(contributors, models.RiskContributor{
			Symbol:       a.Symbol,
			Weight:       a.Weight,
			Criticality:  a.State.Criticality,
			Contribution: c,
		})
	}
	for i := range contributors {
		if crit > 0 {
			contributors[i].ContributionPct = contributors[i].Contribution / crit * 100
		}
	}
	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Contribution > contributors[j].Contribution
	})
	if len(contributors) > TopContributors {
		contributors = contributors[:TopContributors]
	}

	rg := regime.RegimeFor(crit, t)
	return &models.PortfolioState{
		Date:            date,
		Criticality:     crit,
		RawRegime:       rg,
		Regime:          rg,
		TopContributors: contributors,
	}, nil
}

// Series computes portfolio states on every date all symbols share, smoothed
// by a Hysteresis with the given confirmations.
func Series(states map[string][]models.MarketState, weights map[string]float64, t regime.Thresholds, confirmations int) ([]models.PortfolioState, error) {
	if len(weights) == 0 {
		return nil, &models.ConfigError{Field: "assets", Reason: "portfolio cannot be empty"}
	}
	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	bySymbol := make(map[string]map[time.Time]models.MarketState, len(symbols))
	counts := make(map[time.Time]int)
	for _, s := range symbols {
		idx := make(map[time.Time]models.MarketState, len(states[s]))
		for _, st := range states[s] {
			if _, dup := idx[st.Date]; !dup {
				counts[st.Date]++
			}
			idx[st.Date] = st
		}
		bySymbol[s] = idx
	}

	var dates []time.Time
	for d, n := range counts {
		if n == len(symbols) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	h := NewHysteresis(confirmations)
	out := make([]models.PortfolioState, 0, len(dates))
	for _, d := range dates {
		in := Input{Assets: make([]models.PortfolioAsset, 0, len(symbols))}
		for _, s := range symbols {
			in.Assets = append(in.Assets, models.PortfolioAsset{Symbol: s, Weight: weights[s], State: bySymbol[s][d]})
		}
		ps, err := Compute(in, t)
		if err != nil {
			return nil, err
		}
		ps.Date = d
		ps.Regime = h.Apply(ps.RawRegime)
		out = append(out, *ps)
	}
	return out, nil
}
