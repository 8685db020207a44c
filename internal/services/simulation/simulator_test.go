package simulation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/features"
	"seismograph/internal/services/regime"
	"seismograph/internal/testutil"
)

func state(day int, close float64, rg models.Regime, tr models.Trend) models.MarketState {
	return models.MarketState{
		Date:   testutil.Start.AddDate(0, 0, day),
		Close:  close,
		Regime: rg,
		Trend:  tr,
		Phase:  models.PhaseStable,
	}
}

func defensive(t *testing.T) models.StrategyConfig {
	t.Helper()
	cfg, err := Profile(ProfileDefensive)
	require.NoError(t, err)
	return cfg
}

func TestFoldFullExposureMatchesBenchmark(t *testing.T) {
	cfg := defensive(t)
	cfg.HighStressExposure, cfg.MediumStressExposure, cfg.BearMarketExposure = 1, 1, 1
	cfg.TradingFeePct, cfg.InterestRateAnnual = 0, 0

	closes := testutil.RandomWalk(3, 300, 100, 0, 0.03)
	regimes := []models.Regime{models.RegimeGreen, models.RegimeYellow, models.RegimeRed}
	trends := []models.Trend{models.TrendUp, models.TrendDown, models.TrendNeutral}
	states := make([]models.MarketState, len(closes))
	for i, c := range closes {
		states[i] = state(i, c, regimes[i%3], trends[i%2])
	}

	res, err := Fold(states, cfg)
	require.NoError(t, err)
	for _, d := range res.Daily {
		require.Equal(t, d.BenchmarkValue, d.StrategyValue)
	}
	assert.Equal(t, 0, res.Summary.Strategy.TradeCount)
	assert.Equal(t, 0.0, res.Summary.OutperformanceAbs)
}

func TestFoldFeesAndInterest(t *testing.T) {
	cfg := defensive(t)
	cfg.InterestRateAnnual = 0.0365

	states := []models.MarketState{
		state(0, 100, models.RegimeGreen, models.TrendUp),
		state(1, 100, models.RegimeRed, models.TrendUp),
		state(2, 110, models.RegimeRed, models.TrendUp),
	}
	res, err := Fold(states, cfg)
	require.NoError(t, err)
	require.Len(t, res.Daily, 3)

	assert.False(t, res.Daily[0].Traded)
	assert.Equal(t, 10000.0, res.Daily[0].StrategyValue)

	assert.True(t, res.Daily[1].Traded)
	assert.InDelta(t, 8, res.Daily[1].Fee, 1e-9)
	assert.InDelta(t, 9992, res.Daily[1].StrategyValue, 1e-9)
	assert.Equal(t, 0.2, res.Daily[1].RealizedExposure)

	// 20% of 9992 rides the 10% gain, the rest earns one day of interest
	assert.InDelta(t, 0.79936, res.Daily[2].Interest, 1e-9)
	assert.InDelta(t, 10192.63936, res.Daily[2].StrategyValue, 1e-6)
	assert.InDelta(t, 11000, res.Daily[2].BenchmarkValue, 1e-9)

	s := res.Summary
	assert.Equal(t, 1, s.Strategy.TradeCount)
	assert.InDelta(t, 8, s.TotalFees, 1e-9)
	assert.InDelta(t, 0.79936-8, s.NetFriction, 1e-9)
	assert.Equal(t, 1, s.DaysFullyInvested)
	assert.Equal(t, 2, s.DaysPartial)
	assert.Equal(t, 0, s.DaysInCash)
	assert.InDelta(t, 10.0, s.Benchmark.TotalReturnPct, 1e-9)
}

func TestExposureForDowntrendOverridesRegime(t *testing.T) {
	cfg := defensive(t)
	cfg.BearMarketExposure = 0.1
	assert.Equal(t, 0.1, ExposureFor(state(0, 1, models.RegimeGreen, models.TrendDown), cfg))
	assert.Equal(t, 0.2, ExposureFor(state(0, 1, models.RegimeRed, models.TrendUp), cfg))
	assert.Equal(t, 0.5, ExposureFor(state(0, 1, models.RegimeYellow, models.TrendNeutral), cfg))
	assert.Equal(t, 1.0, ExposureFor(state(0, 1, models.RegimeGreen, models.TrendUp), cfg))
}

func TestFoldMonthlyEquity(t *testing.T) {
	states := make([]models.MarketState, 45)
	for i := range states {
		states[i] = state(i, 100+float64(i), models.RegimeGreen, models.TrendUp)
	}
	res, err := Fold(states, defensive(t))
	require.NoError(t, err)
	require.Len(t, res.Equity, 2)
	assert.Equal(t, states[30].Date, res.Equity[0].Date)
	assert.Equal(t, states[44].Date, res.Equity[1].Date)
	assert.Equal(t, 100.0, res.Equity[1].ExposurePct)
}

func TestRunInsufficientHistory(t *testing.T) {
	e, err := regime.NewDefaultEngine()
	require.NoError(t, err)
	sim := NewSimulator(e)

	res, err := sim.Run(testutil.Bars(testutil.Flat(100, 120)), defensive(t))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	e, err := regime.NewDefaultEngine()
	require.NoError(t, err)
	cfg := defensive(t)
	cfg.HighStressExposure = 1.5

	res, err := NewSimulator(e).Run(testutil.Bars(testutil.Flat(100, 300)), cfg)
	assert.Nil(t, res)
	require.True(t, errors.Is(err, models.ErrInvalidConfiguration))
	var ce *models.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "high_stress_exposure", ce.Field)
}

func TestProfiles(t *testing.T) {
	agg, err := Profile("Aggressive")
	require.NoError(t, err)
	assert.Equal(t, 0.5, agg.HighStressExposure)
	assert.Equal(t, 1.0, agg.MediumStressExposure)

	_, err = Profile("yolo")
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
	assert.Equal(t, []string{"aggressive", "defensive"}, ProfileNames())
}

func TestParseStrategyConfig(t *testing.T) {
	cfg, err := ParseStrategyConfig(defensive(t), map[string]float64{
		"high_stress_exposure": 0.3,
		"initial_capital":      5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.HighStressExposure)
	assert.Equal(t, 5000.0, cfg.InitialCapital)
	assert.Equal(t, 0.5, cfg.MediumStressExposure)

	_, err = ParseStrategyConfig(defensive(t), map[string]float64{"leverage": 2})
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))

	_, err = ParseStrategyConfig(defensive(t), map[string]float64{"initial_capital": 0})
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve("", map[string]float64{"trading_fee_pct": 0.002})
	require.NoError(t, err)
	assert.Equal(t, ProfileDefensive, cfg.Name)
	assert.Equal(t, 0.002, cfg.TradingFeePct)

	cfg, err = Resolve(" AGGRESSIVE ", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.MediumStressExposure)

	_, err = Resolve("balanced", nil)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestAggressiveStaysMoreInvested(t *testing.T) {
	e, err := regime.NewDefaultEngine()
	require.NoError(t, err)
	sim := NewSimulator(e)
	bars := testutil.Bars(testutil.RandomWalk(11, 900, 100, 0.0002, 0.02))

	def, err := sim.Run(bars, defensive(t))
	require.NoError(t, err)
	agg, err := Profile(ProfileAggressive)
	require.NoError(t, err)
	aggRes, err := sim.Run(bars, agg)
	require.NoError(t, err)

	require.Equal(t, len(def.Daily), len(aggRes.Daily))
	for i := range def.Daily {
		require.GreaterOrEqual(t, aggRes.Daily[i].RealizedExposure, def.Daily[i].RealizedExposure)
	}
	assert.GreaterOrEqual(t, aggRes.Summary.Strategy.AvgExposurePct, def.Summary.Strategy.AvgExposurePct)

	s := def.Summary
	assert.Equal(t, s.TotalDays, s.DaysFullyInvested+s.DaysPartial+s.DaysInCash)
	assert.Equal(t, 900-e.Floor(), s.TotalDays)
}

func TestRunSteadyRiseStaysInvested(t *testing.T) {
	p, err := features.NewPipeline(features.WithVolatilityWindow(3), features.WithTrendWindow(3), features.WithDrawdownWindow(3))
	require.NoError(t, err)
	rc := regime.DefaultConfig()
	rc.TrendDeadBandPct = 0.5
	c, err := regime.NewClassifier(rc)
	require.NoError(t, err)

	res, err := NewSimulator(regime.NewEngine(p, c)).Run(testutil.Bars(testutil.Geometric(100, 110, 10)), defensive(t))
	require.NoError(t, err)
	last := res.Daily[len(res.Daily)-1]
	assert.Equal(t, 1.0, last.RealizedExposure)
	assert.Equal(t, 0, res.Summary.Strategy.TradeCount)
	assert.InDelta(t, last.BenchmarkValue, last.StrategyValue, 1e-9)
}
