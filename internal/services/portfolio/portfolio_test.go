package portfolio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/regime"
	"seismograph/internal/testutil"
)

var thresholds = regime.Thresholds{Yellow: 40, Red: 70}

func asset(sym string, w, crit float64) models.PortfolioAsset {
	return models.PortfolioAsset{Symbol: sym, Weight: w, State: models.MarketState{Date: testutil.Start, Criticality: crit}}
}

func TestComputeWeightedCriticality(t *testing.T) {
	ps, err := Compute(Input{Assets: []models.PortfolioAsset{
		asset("SPY", 0.6, 30),
		asset("QQQ", 0.4, 80),
	}}, thresholds)
	require.NoError(t, err)

	assert.InDelta(t, 50, ps.Criticality, 1e-9)
	assert.Equal(t, models.RegimeYellow, ps.Regime)
	require.Len(t, ps.TopContributors, 2)
	assert.Equal(t, "QQQ", ps.TopContributors[0].Symbol)
	assert.InDelta(t, 32, ps.TopContributors[0].Contribution, 1e-9)
	assert.InDelta(t, 64, ps.TopContributors[0].ContributionPct, 1e-9)
	assert.InDelta(t, 36, ps.TopContributors[1].ContributionPct, 1e-9)
}

func TestComputeCapsContributors(t *testing.T) {
	var assets []models.PortfolioAsset
	for i, s := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		assets = append(assets, asset(s, 0.125, float64(10*i)))
	}
	ps, err := Compute(Input{Assets: assets}, thresholds)
	require.NoError(t, err)
	require.Len(t, ps.TopContributors, TopContributors)
	assert.Equal(t, "H", ps.TopContributors[0].Symbol)
}

func TestComputeValidation(t *testing.T) {
	tests := []struct {
		name   string
		assets []models.PortfolioAsset
	}{
		{"empty", nil},
		{"sum below one", []models.PortfolioAsset{asset("A", 0.5, 10), asset("B", 0.4, 10)}},
		{"negative weight", []models.PortfolioAsset{asset("A", 1.2, 10), asset("B", -0.2, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(Input{Assets: tt.assets}, thresholds)
			assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
		})
	}

	_, err := Compute(Input{Assets: []models.PortfolioAsset{asset("A", 0.5, 10), asset("B", 0.5000005, 10)}}, thresholds)
	assert.NoError(t, err, "within tolerance")
}

func TestHysteresisNeedsConfirmation(t *testing.T) {
	h := NewHysteresis(DefaultConfirmations)
	g, y, r := models.RegimeGreen, models.RegimeYellow, models.RegimeRed

	seq := []struct{ raw, want models.Regime }{
		{g, g},
		{y, g}, // first sighting
		{g, g}, // flicker resets
		{y, g},
		{y, y}, // confirmed
		{r, y},
		{r, r},
	}
	for i, s := range seq {
		assert.Equal(t, s.want, h.Apply(s.raw), "step %d", i)
	}
}

func TestHysteresisStepsOneLevelAtATime(t *testing.T) {
	h := NewHysteresis(2)
	g, y, r := models.RegimeGreen, models.RegimeYellow, models.RegimeRed

	assert.Equal(t, g, h.Apply(g))
	assert.Equal(t, g, h.Apply(r))
	assert.Equal(t, y, h.Apply(r), "moves toward red")
	assert.Equal(t, y, h.Apply(r))
	assert.Equal(t, r, h.Apply(r))

	assert.Equal(t, r, h.Apply(g))
	assert.Equal(t, y, h.Apply(g))
	assert.Equal(t, y, h.Apply(g))
	assert.Equal(t, g, h.Apply(g))
}

func TestSeriesAlignsDates(t *testing.T) {
	mk := func(days []int, crit float64) []models.MarketState {
		out := make([]models.MarketState, len(days))
		for i, d := range days {
			out[i] = models.MarketState{Date: testutil.Start.AddDate(0, 0, d), Criticality: crit}
		}
		return out
	}
	states := map[string][]models.MarketState{
		"SPY": mk([]int{0, 1, 2, 3, 4}, 80),
		"TLT": mk([]int{1, 2, 3, 4, 5}, 80),
	}
	series, err := Series(states, map[string]float64{"SPY": 0.5, "TLT": 0.5}, thresholds, 2)
	require.NoError(t, err)
	require.Len(t, series, 4)
	assert.Equal(t, testutil.Start.AddDate(0, 0, 1), series[0].Date)
	for _, ps := range series {
		assert.Equal(t, models.RegimeRed, ps.RawRegime)
		assert.Equal(t, models.RegimeRed, ps.Regime)
	}

	_, err = Series(states, map[string]float64{"SPY": 0.7, "TLT": 0.7}, thresholds, 2)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}
