package regime

import (
	"fmt"
	"sort"

	"seismograph/internal/domain/models"
)

// Config holds the weights and thresholds of the classifier.
type Config struct {
	VolatilityWeight float64 `yaml:"volatility_weight" json:"volatility_weight" default:"1.0" validate:"gte=0"`
	TrendDownWeight  float64 `yaml:"trend_down_weight" json:"trend_down_weight" default:"10" validate:"gte=0"`
	ExtensionWeight  float64 `yaml:"extension_weight" json:"extension_weight" default:"10" validate:"gte=0"`
	DrawdownWeight   float64 `yaml:"drawdown_weight" json:"drawdown_weight" default:"0" validate:"gte=0"`

	ExtensionThresholdPct float64 `yaml:"extension_threshold_pct" json:"extension_threshold_pct" default:"30"`
	DeepDrawdown          float64 `yaml:"deep_drawdown" json:"deep_drawdown" default:"-0.20" validate:"lte=0"`
	TrendDeadBandPct      float64 `yaml:"trend_dead_band_pct" json:"trend_dead_band_pct" default:"1.0" validate:"gte=0"`

	YellowThreshold float64 `yaml:"yellow_threshold" json:"yellow_threshold" default:"40"`
	RedThreshold    float64 `yaml:"red_threshold" json:"red_threshold" default:"70"`

	LowPercentile     float64 `yaml:"low_percentile" json:"low_percentile" default:"33.33"`
	MediumPercentile  float64 `yaml:"medium_percentile" json:"medium_percentile" default:"50"`
	HighPercentile    float64 `yaml:"high_percentile" json:"high_percentile" default:"80"`
	ExtremePercentile float64 `yaml:"extreme_percentile" json:"extreme_percentile" default:"99"`
}

// DefaultConfig returns the production calibration.
func DefaultConfig() Config {
	return Config{
		VolatilityWeight:      1.0,
		TrendDownWeight:       10,
		ExtensionWeight:       10,
		DrawdownWeight:        0,
		ExtensionThresholdPct: 30,
		DeepDrawdown:          -0.20,
		TrendDeadBandPct:      1.0,
		YellowThreshold:       40,
		RedThreshold:          70,
		LowPercentile:         33.33,
		MediumPercentile:      50,
		HighPercentile:        80,
		ExtremePercentile:     99,
	}
}

// Validate checks weights are non-negative and thresholds are ordered.
func (c Config) Validate() error {
	weights := []struct {
		name string
		v    float64
	}{
		{"volatility_weight", c.VolatilityWeight},
		{"trend_down_weight", c.TrendDownWeight},
		{"extension_weight", c.ExtensionWeight},
		{"drawdown_weight", c.DrawdownWeight},
		{"trend_dead_band_pct", c.TrendDeadBandPct},
	}
	for _, w := range weights {
		if w.v < 0 {
			return &models.ConfigError{Field: w.name, Reason: fmt.Sprintf("must be >= 0, got %g", w.v)}
		}
	}
	if c.DeepDrawdown > 0 {
		return &models.ConfigError{Field: "deep_drawdown", Reason: "must be <= 0"}
	}
	if !(0 <= c.YellowThreshold && c.YellowThreshold <= c.RedThreshold && c.RedThreshold <= 100) {
		return &models.ConfigError{Field: "red_threshold", Reason: "need 0 <= yellow <= red <= 100"}
	}
	if !(0 <= c.LowPercentile && c.LowPercentile <= c.MediumPercentile &&
		c.MediumPercentile <= c.HighPercentile && c.HighPercentile <= c.ExtremePercentile &&
		c.ExtremePercentile <= 100) {
		return &models.ConfigError{Field: "extreme_percentile", Reason: "percentile tiers must be ordered within [0,100]"}
	}
	return nil
}

// Thresholds are the coarse label cut points.
type Thresholds struct {
	Yellow float64 `json:"yellow"`
	Red    float64 `json:"red"`
}

// Classifier maps a feature row to a market state.
type Classifier struct {
	cfg Config
}

// NewClassifier validates cfg and returns a classifier.
func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Thresholds returns the coarse label cut points.
func (c *Classifier) Thresholds() Thresholds {
	return Thresholds{Yellow: c.cfg.YellowThreshold, Red: c.cfg.RedThreshold}
}

// RegimeFor maps a criticality score to a coarse label.
func (c *Classifier) RegimeFor(criticality float64) models.Regime {
	return RegimeFor(criticality, c.Thresholds())
}

// RegimeFor maps a criticality score to a coarse label using t.
func RegimeFor(criticality float64, t Thresholds) models.Regime {
	switch {
	case criticality >= t.Red:
		return models.RegimeRed
	case criticality >= t.Yellow:
		return models.RegimeYellow
	default:
		return models.RegimeGreen
	}
}

// TrendOf labels the price deviation from the moving average.
func (c *Classifier) TrendOf(deviationPct float64) models.Trend {
	switch {
	case deviationPct > c.cfg.TrendDeadBandPct:
		return models.TrendUp
	case deviationPct < -c.cfg.TrendDeadBandPct:
		return models.TrendDown
	default:
		return models.TrendNeutral
	}
}

// Classify is pure: the same row always yields the same state.
func (c *Classifier) Classify(row models.FeatureRow) models.MarketState {
	pct := row.VolatilityPercentile
	trend := c.TrendOf(row.PriceDeviationPct)

	comp := models.Components{Volatility: c.cfg.VolatilityWeight * pct}
	if trend == models.TrendDown {
		comp.Trend = c.cfg.TrendDownWeight
	}
	if row.PriceDeviationPct > c.cfg.ExtensionThresholdPct {
		comp.Extension = c.cfg.ExtensionWeight
	}
	if row.Drawdown <= c.cfg.DeepDrawdown {
		comp.Drawdown = c.cfg.DrawdownWeight
	}
	crit := clamp(comp.Volatility+comp.Trend+comp.Extension+comp.Drawdown, 0, 100)

	return models.MarketState{
		Date:                 row.Date,
		Close:                row.Close,
		Criticality:          crit,
		Regime:               c.RegimeFor(crit),
		Phase:                c.phase(pct, crit, trend),
		Trend:                trend,
		Volatility:           row.Volatility,
		VolatilityPercentile: pct,
		SMA:                  row.SMA,
		PriceDeviationPct:    row.PriceDeviationPct,
		Drawdown:             row.Drawdown,
		Components:           comp,
		Reasons:              c.reasons(row, trend, comp),
	}
}

func (c *Classifier) phase(pct, crit float64, trend models.Trend) models.Phase {
	if pct >= c.cfg.ExtremePercentile {
		return models.PhaseCritical
	}
	if trend == models.TrendDown {
		// structural decline
		if crit >= c.cfg.RedThreshold || pct >= c.cfg.HighPercentile {
			return models.PhaseCritical
		}
		return models.PhaseDormant
	}
	if pct < c.cfg.LowPercentile {
		return models.PhaseStable
	}
	switch {
	case crit < c.cfg.YellowThreshold:
		return models.PhaseStable
	case crit < c.cfg.RedThreshold:
		return models.PhaseActive
	default:
		return models.PhaseHighEnergy
	}
}

type reason struct {
	code   models.ReasonCode
	weight float64
}

func (c *Classifier) reasons(row models.FeatureRow, trend models.Trend, comp models.Components) []models.ReasonCode {
	pct := row.VolatilityPercentile
	var rs []reason
	switch {
	case pct >= c.cfg.ExtremePercentile:
		rs = append(rs, reason{models.ReasonVolExtreme, comp.Volatility})
	case pct >= c.cfg.HighPercentile:
		rs = append(rs, reason{models.ReasonVolHigh, comp.Volatility})
	case pct >= c.cfg.MediumPercentile:
		rs = append(rs, reason{models.ReasonVolElevated, comp.Volatility})
	case pct < c.cfg.LowPercentile:
		rs = append(rs, reason{models.ReasonVolLow, comp.Volatility})
	}
	switch trend {
	case models.TrendDown:
		rs = append(rs, reason{models.ReasonTrendDown, comp.Trend})
	case models.TrendUp:
		rs = append(rs, reason{models.ReasonTrendUp, comp.Trend})
	}
	if row.PriceDeviationPct > c.cfg.ExtensionThresholdPct {
		rs = append(rs, reason{models.ReasonExtensionParabolic, comp.Extension})
	}
	if row.Drawdown <= c.cfg.DeepDrawdown {
		rs = append(rs, reason{models.ReasonDrawdownDeep, comp.Drawdown})
	}

	sort.SliceStable(rs, func(i, j int) bool { return rs[i].weight > rs[j].weight })
	if len(rs) > models.MaxReasons {
		rs = rs[:models.MaxReasons]
	}
	out := make([]models.ReasonCode, len(rs))
	for i, r := range rs {
		out[i] = r.code
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
