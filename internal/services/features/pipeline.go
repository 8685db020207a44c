package features

import (
	"fmt"

	"seismograph/internal/domain/models"
)

// Config holds the lookback windows of the feature pipeline.
type Config struct {
	VolatilityWindow      int     `yaml:"volatility_window" json:"volatility_window" default:"30" validate:"gte=2"`
	PercentileWindow      int     `yaml:"percentile_window" json:"percentile_window" default:"252" validate:"gte=2"`
	TrendWindow           int     `yaml:"trend_window" json:"trend_window" default:"200" validate:"gte=2"`
	DrawdownWindow        int     `yaml:"drawdown_window" json:"drawdown_window" default:"90" validate:"gte=2"`
	ZeroVolatilityEpsilon float64 `yaml:"zero_volatility_epsilon" json:"zero_volatility_epsilon" default:"1e-12" validate:"gte=0"`
}

// DefaultConfig returns the production windows.
func DefaultConfig() Config {
	return Config{
		VolatilityWindow:      30,
		PercentileWindow:      252,
		TrendWindow:           200,
		DrawdownWindow:        90,
		ZeroVolatilityEpsilon: 1e-12,
	}
}

// Validate rejects windows too short to produce a statistic.
func (c Config) Validate() error {
	check := func(name string, v int) error {
		if v < 2 {
			return &models.ConfigError{Field: name, Reason: fmt.Sprintf("window must be >= 2, got %d", v)}
		}
		return nil
	}
	if err := check("volatility_window", c.VolatilityWindow); err != nil {
		return err
	}
	if err := check("percentile_window", c.PercentileWindow); err != nil {
		return err
	}
	if err := check("trend_window", c.TrendWindow); err != nil {
		return err
	}
	if err := check("drawdown_window", c.DrawdownWindow); err != nil {
		return err
	}
	if c.ZeroVolatilityEpsilon < 0 {
		return &models.ConfigError{Field: "zero_volatility_epsilon", Reason: "must be >= 0"}
	}
	return nil
}

// Option configures Pipeline.
type Option func(*Config)

// WithVolatilityWindow sets the return window of realized volatility.
func WithVolatilityWindow(n int) Option {
	return func(c *Config) { c.VolatilityWindow = n }
}

// WithPercentileWindow sets how many volatility samples the percentile ranks against.
func WithPercentileWindow(n int) Option {
	return func(c *Config) { c.PercentileWindow = n }
}

// WithTrendWindow sets the moving average length.
func WithTrendWindow(n int) Option {
	return func(c *Config) { c.TrendWindow = n }
}

// WithDrawdownWindow sets the trailing peak window.
func WithDrawdownWindow(n int) Option {
	return func(c *Config) { c.DrawdownWindow = n }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// Pipeline computes causal per-bar features.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a pipeline with default windows overridden by opts.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// MinLookback is the number of bars needed before the first feature row.
func (p *Pipeline) MinLookback() int {
	n := p.cfg.VolatilityWindow + 1
	if p.cfg.TrendWindow > n {
		n = p.cfg.TrendWindow
	}
	if p.cfg.DrawdownWindow > n {
		n = p.cfg.DrawdownWindow
	}
	return n
}

// Compute returns the feature row of bar i using bars[0..i] only.
func (p *Pipeline) Compute(bars []models.PriceBar, i int) (models.FeatureRow, error) {
	if i < 0 || i >= len(bars) {
		return models.FeatureRow{}, &models.InsufficientHistoryError{Have: len(bars), Need: i + 1}
	}
	if i+1 < p.MinLookback() {
		return models.FeatureRow{}, &models.InsufficientHistoryError{Have: i + 1, Need: p.MinLookback()}
	}
	prefix := bars[:i+1]
	if err := models.ValidateBars(prefix); err != nil {
		return models.FeatureRow{}, fmt.Errorf("feature pipeline: %w", err)
	}
	closes := models.Closes(prefix)
	vols := RollingStd(PctReturns(closes), p.cfg.VolatilityWindow)
	return p.row(prefix, closes, vols, i), nil
}

// ComputeAll returns rows for every bar from the lookback floor to the end.
// Row k corresponds to bar MinLookback()-1+k.
func (p *Pipeline) ComputeAll(bars []models.PriceBar) ([]models.FeatureRow, error) {
	floor := p.MinLookback() - 1
	if len(bars) <= floor {
		return nil, &models.InsufficientHistoryError{Have: len(bars), Need: p.MinLookback()}
	}
	if err := models.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("feature pipeline: %w", err)
	}
	closes := models.Closes(bars)
	vols := RollingStd(PctReturns(closes), p.cfg.VolatilityWindow)
	rows := make([]models.FeatureRow, 0, len(bars)-floor)
	for i := floor; i < len(bars); i++ {
		rows = append(rows, p.row(bars, closes, vols, i))
	}
	return rows, nil
}

// row builds the features of bar i. closes and vols must be valid up to i;
// nothing past i is read.
func (p *Pipeline) row(bars []models.PriceBar, closes, vols []float64, i int) models.FeatureRow {
	cur := closes[i]
	ret := 0.0
	if i > 0 {
		ret = cur/closes[i-1] - 1
	}

	sma := Mean(closes[i-p.cfg.TrendWindow+1 : i+1])
	peak := Max(closes[i-p.cfg.DrawdownWindow+1 : i+1])

	return models.FeatureRow{
		Index:                i,
		Date:                 bars[i].Date,
		Close:                cur,
		Return:               ret,
		Volatility:           vols[i],
		VolatilityPercentile: p.volatilityPercentile(vols, i),
		SMA:                  sma,
		PriceDeviationPct:    (cur/sma - 1) * 100,
		RollingPeak:          peak,
		Drawdown:             cur/peak - 1,
	}
}

func (p *Pipeline) volatilityPercentile(vols []float64, i int) float64 {
	if vols[i] <= p.cfg.ZeroVolatilityEpsilon {
		return 0
	}
	lo := i - p.cfg.PercentileWindow + 1
	if lo < p.cfg.VolatilityWindow {
		lo = p.cfg.VolatilityWindow
	}
	return PercentileRank(vols[lo : i+1])
}
