package regimestats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/testutil"
)

func labelled(regimes []models.Regime, closes []float64) []models.MarketState {
	out := make([]models.MarketState, len(regimes))
	for i, r := range regimes {
		out[i] = models.MarketState{
			Date:   testutil.Start.AddDate(0, 0, i),
			Close:  closes[i],
			Regime: r,
			Phase:  models.PhaseStable,
		}
	}
	return out
}

const (
	g = models.RegimeGreen
	y = models.RegimeYellow
	r = models.RegimeRed
)

func TestBlocksRunLength(t *testing.T) {
	states := labelled([]models.Regime{g, g, g, y, y, r, r, r, r, g}, testutil.Linear(100, 109, 10))
	blocks := Blocks(states, ByRegime)

	require.Len(t, blocks, 4)
	want := []struct {
		label string
		bars  int
		start int
	}{{"GREEN", 3, 0}, {"YELLOW", 2, 3}, {"RED", 4, 5}, {"GREEN", 1, 9}}
	for i, w := range want {
		assert.Equal(t, w.label, blocks[i].Label)
		assert.Equal(t, w.bars, blocks[i].Bars)
		assert.Equal(t, w.start, blocks[i].StartIndex)
		assert.Equal(t, states[w.start].Date, blocks[i].Start)
	}
	assert.Equal(t, states[8].Date, blocks[2].End)
}

func TestComputeDurationsAndFrequency(t *testing.T) {
	states := labelled([]models.Regime{g, g, g, y, y, r, r, r, r, g}, testutil.Linear(100, 109, 10))
	table := Compute(states, RegimeOptions())

	assert.Equal(t, 10, table.TotalBars)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"GREEN", "YELLOW", "RED"}, []string{table.Rows[0].Label, table.Rows[1].Label, table.Rows[2].Label})

	green, ok := table.Row("GREEN")
	require.True(t, ok)
	assert.Equal(t, 2, green.Blocks)
	assert.Equal(t, 4, green.Bars)
	assert.Equal(t, 1, green.MinDuration)
	assert.Equal(t, 3, green.MaxDuration)
	assert.Equal(t, 2.0, green.MeanDuration)
	assert.Equal(t, 2.0, green.MedianDuration)
	assert.InDelta(t, 2.9, green.P95Duration, 1e-9)
	assert.InDelta(t, 1.41421356, green.StdDuration, 1e-8)
	assert.Equal(t, 40.0, green.FrequencyPct)

	red, _ := table.Row("RED")
	assert.Equal(t, 0.0, red.StdDuration)
	assert.InDelta(t, (108.0/105-1)*100, red.AvgChangeDuringPct, 1e-9)
}

func TestComputeForwardBackwardReturns(t *testing.T) {
	closes := testutil.Linear(100, 119, 20)
	regimes := make([]models.Regime, 20)
	for i := range regimes {
		regimes[i] = g
		if i >= 5 && i < 8 {
			regimes[i] = r
		}
	}
	table := Compute(labelled(regimes, closes), Options{Label: ByRegime, Order: RegimeOrder, Horizons: []int{2, 10}})

	red, ok := table.Row("RED")
	require.True(t, ok)
	assert.InDelta(t, (107.0/105-1)*100, red.ForwardReturns[2], 1e-9)
	assert.InDelta(t, (115.0/105-1)*100, red.ForwardReturns[10], 1e-9)
	assert.InDelta(t, (105.0/103-1)*100, red.BackwardReturns[2], 1e-9)
	_, has := red.BackwardReturns[10]
	assert.False(t, has, "no bar 10 before the block")

	green, _ := table.Row("GREEN")
	// first green block starts at bar 0, second at bar 8
	assert.InDelta(t, ((102.0/100-1)+(110.0/108-1))/2*100, green.ForwardReturns[2], 1e-9)
	assert.InDelta(t, (108.0/106-1)*100, green.BackwardReturns[2], 1e-9)
}

func TestComputeByPhase(t *testing.T) {
	states := labelled([]models.Regime{g, g, g}, testutil.Flat(100, 3))
	states[2].Phase = models.PhaseCritical
	table := Compute(states, PhaseOptions())
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "STABLE", table.Rows[0].Label)
	assert.Equal(t, "CRITICAL", table.Rows[1].Label)
}

func TestComputeEmpty(t *testing.T) {
	table := Compute(nil, RegimeOptions())
	assert.Equal(t, 0, table.TotalBars)
	assert.Empty(t, table.Rows)
}
