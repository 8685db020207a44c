package models

import "time"

// FeatureRow holds per-bar metrics computed from bars[0..Index] only.
type FeatureRow struct {
	Index                int       `json:"index"`
	Date                 time.Time `json:"date"`
	Close                float64   `json:"close"`
	Return               float64   `json:"return"`
	Volatility           float64   `json:"volatility"`
	VolatilityPercentile float64   `json:"volatility_percentile"`
	SMA                  float64   `json:"sma"`
	PriceDeviationPct    float64   `json:"price_deviation_pct"`
	RollingPeak          float64   `json:"rolling_peak"`
	Drawdown             float64   `json:"drawdown"`
}

// Regime is the coarse three-tier label.
type Regime string

const (
	RegimeGreen  Regime = "GREEN"
	RegimeYellow Regime = "YELLOW"
	RegimeRed    Regime = "RED"
)

// Regimes lists coarse labels in severity order.
var Regimes = []Regime{RegimeGreen, RegimeYellow, RegimeRed}

// Phase is the fine five-tier label.
type Phase string

const (
	PhaseDormant    Phase = "DORMANT"
	PhaseStable     Phase = "STABLE"
	PhaseActive     Phase = "ACTIVE"
	PhaseHighEnergy Phase = "HIGH_ENERGY"
	PhaseCritical   Phase = "CRITICAL"
)

// Phases lists fine labels in display order.
var Phases = []Phase{PhaseDormant, PhaseStable, PhaseActive, PhaseHighEnergy, PhaseCritical}

// Trend is the price position relative to the long moving average.
type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

// ReasonCode names a factor that drove the criticality score.
type ReasonCode string

const (
	ReasonVolExtreme         ReasonCode = "VOL_EXTREME"
	ReasonVolHigh            ReasonCode = "VOL_HIGH"
	ReasonVolElevated        ReasonCode = "VOL_ELEVATED"
	ReasonVolLow             ReasonCode = "VOL_LOW"
	ReasonTrendDown          ReasonCode = "TREND_DOWN"
	ReasonTrendUp            ReasonCode = "TREND_UP"
	ReasonExtensionParabolic ReasonCode = "EXTENSION_PARABOLIC"
	ReasonDrawdownDeep       ReasonCode = "DRAWDOWN_DEEP"
)

// MaxReasons caps the reason list of a MarketState.
const MaxReasons = 4

// Components decomposes the criticality score.
type Components struct {
	Volatility float64 `json:"volatility"`
	Trend      float64 `json:"trend"`
	Extension  float64 `json:"extension"`
	Drawdown   float64 `json:"drawdown"`
}

// MarketState is the classifier output for one bar.
type MarketState struct {
	Date                 time.Time    `json:"date"`
	Close                float64      `json:"close"`
	Criticality          float64      `json:"criticality"`
	Regime               Regime       `json:"regime"`
	Phase                Phase        `json:"phase"`
	Trend                Trend        `json:"trend"`
	Volatility           float64      `json:"volatility"`
	VolatilityPercentile float64      `json:"volatility_percentile"`
	SMA                  float64      `json:"sma"`
	PriceDeviationPct    float64      `json:"price_deviation_pct"`
	Drawdown             float64      `json:"drawdown"`
	Components           Components   `json:"components"`
	Reasons              []ReasonCode `json:"reasons"`
}

// IsWarning reports whether the state carries a warning label.
func (s MarketState) IsWarning() bool {
	return s.Regime == RegimeRed || s.Phase == PhaseHighEnergy || s.Phase == PhaseCritical
}

// RegimeTransition is emitted when the live regime of a symbol changes.
type RegimeTransition struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	From        Regime    `json:"from"`
	To          Regime    `json:"to"`
	FromPhase   Phase     `json:"from_phase"`
	ToPhase     Phase     `json:"to_phase"`
	Criticality float64   `json:"criticality"`
}
