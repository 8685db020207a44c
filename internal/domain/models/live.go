package models

import "time"

// TrendSignal is the binary trend reported to end users.
type TrendSignal string

const (
	TrendSignalBull TrendSignal = "BULL"
	TrendSignalBear TrendSignal = "BEAR"
)

// RawMetrics exposes the inputs behind a live state.
type RawMetrics struct {
	CurrentPrice         float64 `json:"current_price"`
	SMA                  float64 `json:"sma"`
	PriceDeviationPct    float64 `json:"price_deviation_pct"`
	Volatility           float64 `json:"volatility"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
	Drawdown             float64 `json:"drawdown"`
	IsUptrend            bool    `json:"is_uptrend"`
	StrategyMode         string  `json:"strategy_mode"`
	HighStressExposure   float64 `json:"high_stress_exposure"`
	MediumStressExposure float64 `json:"medium_stress_exposure"`
	BearMarketExposure   float64 `json:"bear_market_exposure"`
}

// LiveState is the latest row of the exposure fold for one symbol.
type LiveState struct {
	Symbol      string       `json:"symbol"`
	AsOf        time.Time    `json:"as_of"`
	IsInvested  bool         `json:"is_invested"`
	ExposurePct float64      `json:"exposure_pct"`
	Regime      Regime       `json:"regime"`
	Phase       Phase        `json:"phase"`
	Criticality float64      `json:"criticality_score"`
	TrendSignal TrendSignal  `json:"trend_signal"`
	Trend       Trend        `json:"trend"`
	Reasons     []ReasonCode `json:"reasons"`
	Raw         RawMetrics   `json:"raw_metrics"`
}

// AnalysisReport bundles every downstream consumer of one state stream.
type AnalysisReport struct {
	Symbol      string            `json:"symbol"`
	Period      string            `json:"period"`
	Live        LiveState         `json:"live"`
	Simulation  *SimulationResult `json:"simulation"`
	Crashes     *CrashMetrics     `json:"crashes"`
	RegimeStats *RegimeStats      `json:"regime_stats"`
	PhaseStats  *RegimeStats      `json:"phase_stats"`
	Audit       *AuditReport      `json:"audit,omitempty"`
}
