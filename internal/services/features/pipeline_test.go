package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/testutil"
)

func TestMinLookback(t *testing.T) {
	p, err := NewPipeline()
	require.NoError(t, err)
	assert.Equal(t, 200, p.MinLookback())

	p, err = NewPipeline(WithTrendWindow(5), WithVolatilityWindow(10), WithDrawdownWindow(3))
	require.NoError(t, err)
	assert.Equal(t, 11, p.MinLookback())
}

func TestNewPipelineRejectsShortWindows(t *testing.T) {
	_, err := NewPipeline(WithVolatilityWindow(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestComputeInsufficientHistory(t *testing.T) {
	p, err := NewPipeline()
	require.NoError(t, err)
	bars := testutil.Bars(testutil.RandomWalk(1, 250, 100, 0, 0.01))

	_, err = p.Compute(bars, 198)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	var ih *models.InsufficientHistoryError
	require.True(t, errors.As(err, &ih))
	assert.Equal(t, 199, ih.Have)
	assert.Equal(t, 200, ih.Need)

	_, err = p.Compute(bars, 199)
	require.NoError(t, err)

	_, err = p.ComputeAll(bars[:199])
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}

func TestComputeMatchesComputeAll(t *testing.T) {
	p, err := NewPipeline()
	require.NoError(t, err)
	bars := testutil.Bars(testutil.RandomWalk(7, 400, 50, 0.0003, 0.02))

	rows, err := p.ComputeAll(bars)
	require.NoError(t, err)
	require.Len(t, rows, 400-199)

	for _, i := range []int{199, 250, 399} {
		row, err := p.Compute(bars, i)
		require.NoError(t, err)
		assert.Equal(t, rows[i-199], row)
	}
}

func TestNoLookAhead(t *testing.T) {
	p, err := NewPipeline()
	require.NoError(t, err)

	for seed := int64(1); seed <= 5; seed++ {
		full := testutil.Bars(testutil.RandomWalk(seed, 520, 100, 0.0002, 0.025))
		extended, err := p.ComputeAll(full)
		require.NoError(t, err)

		for _, cut := range []int{200, 260, 333, 480} {
			prefix, err := p.ComputeAll(full[:cut])
			require.NoError(t, err)
			for k := range prefix {
				require.Equal(t, prefix[k], extended[k], "seed %d cut %d row %d", seed, cut, k)
			}
		}
	}
}

func TestFeatureValues(t *testing.T) {
	p, err := NewPipeline(WithVolatilityWindow(2), WithTrendWindow(4), WithDrawdownWindow(3))
	require.NoError(t, err)
	bars := testutil.Bars([]float64{100, 110, 99, 99, 120})

	row, err := p.Compute(bars, 4)
	require.NoError(t, err)

	assert.InDelta(t, 120.0/99-1, row.Return, 1e-12)
	assert.InDelta(t, (110+99+99+120)/4.0, row.SMA, 1e-12)
	assert.InDelta(t, (120/107.0-1)*100, row.PriceDeviationPct, 1e-9)
	assert.Equal(t, 120.0, row.RollingPeak)
	assert.Equal(t, 0.0, row.Drawdown)

	row, err = p.Compute(bars, 3)
	require.NoError(t, err)
	assert.Equal(t, 110.0, row.RollingPeak)
	assert.InDelta(t, 99.0/110-1, row.Drawdown, 1e-12)
	// returns over the window are -0.1 and 0
	assert.InDelta(t, StdDev([]float64{99.0/110 - 1, 0}), row.Volatility, 1e-15)
}

func TestZeroVolatilityRanksZero(t *testing.T) {
	p, err := NewPipeline(WithVolatilityWindow(3), WithTrendWindow(3), WithDrawdownWindow(3))
	require.NoError(t, err)
	rows, err := p.ComputeAll(testutil.Bars(testutil.Geometric(100, 110, 10)))
	require.NoError(t, err)
	for _, r := range rows {
		assert.Less(t, r.Volatility, 1e-12)
		assert.Equal(t, 0.0, r.VolatilityPercentile)
	}
}

func TestPercentileRankTiesFavourLaterIndex(t *testing.T) {
	assert.Equal(t, 100.0, PercentileRank([]float64{1, 1, 1}))
	assert.Equal(t, 0.0, PercentileRank([]float64{2, 3, 1}))
	assert.Equal(t, 50.0, PercentileRank([]float64{1, 3, 2}))
	assert.Equal(t, 0.0, PercentileRank([]float64{5}))
}

func TestRollingDrawdownPartialWindow(t *testing.T) {
	dd := RollingDrawdown([]float64{100, 80, 90, 120, 60}, 3)
	assert.InDelta(t, 0, dd[0], 1e-12)
	assert.InDelta(t, -0.2, dd[1], 1e-12)
	assert.InDelta(t, -0.1, dd[2], 1e-12)
	assert.InDelta(t, 0, dd[3], 1e-12)
	assert.InDelta(t, -0.5, dd[4], 1e-12)
}

func TestRollingStdWarmup(t *testing.T) {
	out := RollingStd([]float64{0, 0.1, 0.2, 0.3}, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, StdDev([]float64{0.1, 0.2}), out[2], 1e-15)
}
