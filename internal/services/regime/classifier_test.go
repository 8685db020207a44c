package regime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/services/features"
	"seismograph/internal/testutil"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultConfig())
	require.NoError(t, err)
	return c
}

func TestClassifyPhasePrecedence(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name   string
		row    models.FeatureRow
		phase  models.Phase
		regime models.Regime
	}{
		{
			name:   "extreme volatility wins over everything",
			row:    models.FeatureRow{VolatilityPercentile: 99.5, PriceDeviationPct: 5},
			phase:  models.PhaseCritical,
			regime: models.RegimeRed,
		},
		{
			name:   "downtrend with high volatility is structural decline",
			row:    models.FeatureRow{VolatilityPercentile: 85, PriceDeviationPct: -8},
			phase:  models.PhaseCritical,
			regime: models.RegimeRed,
		},
		{
			name:   "downtrend at red criticality is critical",
			row:    models.FeatureRow{VolatilityPercentile: 61, PriceDeviationPct: -3},
			phase:  models.PhaseCritical,
			regime: models.RegimeRed,
		},
		{
			name:   "quiet downtrend is dormant",
			row:    models.FeatureRow{VolatilityPercentile: 20, PriceDeviationPct: -3},
			phase:  models.PhaseDormant,
			regime: models.RegimeGreen,
		},
		{
			name:   "volatility floor forces stable even when extended",
			row:    models.FeatureRow{VolatilityPercentile: 30, PriceDeviationPct: 45},
			phase:  models.PhaseStable,
			regime: models.RegimeYellow,
		},
		{
			name:   "low criticality uptrend is stable",
			row:    models.FeatureRow{VolatilityPercentile: 35, PriceDeviationPct: 4},
			phase:  models.PhaseStable,
			regime: models.RegimeGreen,
		},
		{
			name:   "mid criticality is active",
			row:    models.FeatureRow{VolatilityPercentile: 55, PriceDeviationPct: 4},
			phase:  models.PhaseActive,
			regime: models.RegimeYellow,
		},
		{
			name:   "high criticality without downtrend is high energy",
			row:    models.FeatureRow{VolatilityPercentile: 75, PriceDeviationPct: 2},
			phase:  models.PhaseHighEnergy,
			regime: models.RegimeRed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.Classify(tt.row)
			assert.Equal(t, tt.phase, s.Phase)
			assert.Equal(t, tt.regime, s.Regime)
		})
	}
}

func TestClassifyCriticalityComponents(t *testing.T) {
	c := newClassifier(t)

	s := c.Classify(models.FeatureRow{VolatilityPercentile: 50, PriceDeviationPct: -2, Drawdown: -0.3})
	assert.Equal(t, models.TrendDown, s.Trend)
	assert.InDelta(t, 60, s.Criticality, 1e-9)
	assert.Equal(t, 50.0, s.Components.Volatility)
	assert.Equal(t, 10.0, s.Components.Trend)
	assert.Equal(t, 0.0, s.Components.Drawdown)

	s = c.Classify(models.FeatureRow{VolatilityPercentile: 95, PriceDeviationPct: 40})
	assert.Equal(t, 100.0, s.Criticality, "clamped")
	assert.Equal(t, models.TrendUp, s.Trend)
}

func TestClassifyTrendDeadBand(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, models.TrendNeutral, c.Classify(models.FeatureRow{PriceDeviationPct: 0.99}).Trend)
	assert.Equal(t, models.TrendNeutral, c.Classify(models.FeatureRow{PriceDeviationPct: -1}).Trend)
	assert.Equal(t, models.TrendUp, c.Classify(models.FeatureRow{PriceDeviationPct: 1.01}).Trend)
	assert.Equal(t, models.TrendDown, c.Classify(models.FeatureRow{PriceDeviationPct: -1.01}).Trend)
}

func TestRegimeThresholds(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, models.RegimeGreen, c.RegimeFor(39.999))
	assert.Equal(t, models.RegimeYellow, c.RegimeFor(40))
	assert.Equal(t, models.RegimeYellow, c.RegimeFor(69.999))
	assert.Equal(t, models.RegimeRed, c.RegimeFor(70))
}

func TestClassifyReasonsOrderedByContribution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrawdownWeight = 20
	c, err := NewClassifier(cfg)
	require.NoError(t, err)

	s := c.Classify(models.FeatureRow{VolatilityPercentile: 12, PriceDeviationPct: -4, Drawdown: -0.35})
	assert.Equal(t, []models.ReasonCode{
		models.ReasonDrawdownDeep,
		models.ReasonVolLow,
		models.ReasonTrendDown,
	}, s.Reasons)

	s = c.Classify(models.FeatureRow{VolatilityPercentile: 99.9, PriceDeviationPct: 35})
	require.NotEmpty(t, s.Reasons)
	assert.Equal(t, models.ReasonVolExtreme, s.Reasons[0])
	assert.Contains(t, s.Reasons, models.ReasonExtensionParabolic)
	assert.LessOrEqual(t, len(s.Reasons), models.MaxReasons)
}

func TestClassifyIsPure(t *testing.T) {
	c := newClassifier(t)
	row := models.FeatureRow{VolatilityPercentile: 66, PriceDeviationPct: 12, Drawdown: -0.05}
	assert.Equal(t, c.Classify(row), c.Classify(row))
}

func TestNewClassifierRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YellowThreshold = 80
	_, err := NewClassifier(cfg)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))

	cfg = DefaultConfig()
	cfg.VolatilityWeight = -1
	_, err = NewClassifier(cfg)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestEngineSteadyRiseIsGreenStable(t *testing.T) {
	p, err := features.NewPipeline(features.WithVolatilityWindow(3), features.WithTrendWindow(3), features.WithDrawdownWindow(3))
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.TrendDeadBandPct = 0.5
	c, err := NewClassifier(cfg)
	require.NoError(t, err)
	e := NewEngine(p, c)

	bars := testutil.Bars(testutil.Geometric(100, 110, 10))
	states, err := e.States(bars)
	require.NoError(t, err)
	require.Len(t, states, 10-e.Floor())

	for _, s := range states {
		assert.Equal(t, models.RegimeGreen, s.Regime)
		assert.Equal(t, models.PhaseStable, s.Phase)
		assert.Equal(t, models.TrendUp, s.Trend)
		assert.Equal(t, 0.0, s.Criticality)
		assert.False(t, s.IsWarning())
	}
}

func TestEngineStateAtMatchesStream(t *testing.T) {
	e, err := NewDefaultEngine()
	require.NoError(t, err)
	bars := testutil.Bars(testutil.RandomWalk(42, 320, 80, 0.0001, 0.03))

	states, err := e.States(bars)
	require.NoError(t, err)
	for _, i := range []int{e.Floor(), 260, 319} {
		s, err := e.StateAt(bars[:i+1], i)
		require.NoError(t, err)
		assert.Equal(t, states[i-e.Floor()], s)
	}

	_, err = e.StateAt(bars, e.Floor()-1)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
	_, err = e.States(bars[:100])
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}
