package models

import "time"

// StrategyConfig maps regimes to exposure fractions and sets friction costs.
type StrategyConfig struct {
	Name                 string  `json:"name" yaml:"name"`
	HighStressExposure   float64 `json:"high_stress_exposure" yaml:"high_stress_exposure" validate:"gte=0,lte=1"`
	MediumStressExposure float64 `json:"medium_stress_exposure" yaml:"medium_stress_exposure" validate:"gte=0,lte=1"`
	BearMarketExposure   float64 `json:"bear_market_exposure" yaml:"bear_market_exposure" validate:"gte=0,lte=1"`
	TradingFeePct        float64 `json:"trading_fee_pct" yaml:"trading_fee_pct" validate:"gte=0,lt=1"`
	InterestRateAnnual   float64 `json:"interest_rate_annual" yaml:"interest_rate_annual" validate:"gte=0,lte=1"`
	InitialCapital       float64 `json:"initial_capital" yaml:"initial_capital" validate:"gt=0"`
}

// SimulationState is one row of the exposure backtest.
type SimulationState struct {
	Date              time.Time `json:"date"`
	Close             float64   `json:"close"`
	SMA               float64   `json:"sma"`
	Criticality       float64   `json:"criticality"`
	Regime            Regime    `json:"regime"`
	Phase             Phase     `json:"phase"`
	Trend             Trend     `json:"trend"`
	TargetExposure    float64   `json:"target_exposure"`
	RealizedExposure  float64   `json:"realized_exposure"`
	Traded            bool      `json:"traded"`
	Fee               float64   `json:"fee"`
	Interest          float64   `json:"interest"`
	StrategyValue     float64   `json:"strategy_value"`
	BenchmarkValue    float64   `json:"benchmark_value"`
	StrategyDrawdown  float64   `json:"strategy_drawdown"`
	BenchmarkDrawdown float64   `json:"benchmark_drawdown"`
}

// StrategySummary aggregates one equity curve.
type StrategySummary struct {
	FinalValue       float64 `json:"final_value"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	TradeCount       int     `json:"trade_count"`
	AvgExposurePct   float64 `json:"avg_exposure_pct"`
	AnnualizedVolPct float64 `json:"annualized_vol_pct"`
	ReturnToVolRatio float64 `json:"return_to_vol_ratio"`
}

// SimulationSummary compares the strategy against the benchmark.
type SimulationSummary struct {
	Strategy           StrategySummary `json:"strategy"`
	Benchmark          StrategySummary `json:"benchmark"`
	StrategyName       string          `json:"strategy_name"`
	InitialCapital     float64         `json:"initial_capital"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	TotalDays          int             `json:"total_days"`
	OutperformancePct  float64         `json:"outperformance_pct"`
	OutperformanceAbs  float64         `json:"outperformance_abs"`
	DrawdownProtection float64         `json:"drawdown_protection"`
	TotalFees          float64         `json:"total_fees"`
	TotalInterest      float64         `json:"total_interest"`
	NetFriction        float64         `json:"net_friction"`
	DaysFullyInvested  int             `json:"days_fully_invested"`
	DaysPartial        int             `json:"days_partial"`
	DaysInCash         int             `json:"days_in_cash"`
}

// EquityPoint is a month-end snapshot of both curves.
type EquityPoint struct {
	Date           time.Time `json:"date"`
	StrategyValue  float64   `json:"strategy_value"`
	BenchmarkValue float64   `json:"benchmark_value"`
	ExposurePct    float64   `json:"exposure_pct"`
	Criticality    float64   `json:"criticality"`
}

// SimulationResult is the full output of an exposure backtest.
type SimulationResult struct {
	Summary SimulationSummary `json:"summary"`
	Daily   []SimulationState `json:"daily_states"`
	Equity  []EquityPoint     `json:"equity_curve"`
}
