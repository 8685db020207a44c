package simulation

import (
	"fmt"
	"math"

	"seismograph/internal/domain/models"
	domsvc "seismograph/internal/domain/service"
	"seismograph/internal/services/features"
)

const tradingDaysPerYear = 252

// Simulator backtests regime-driven exposure against buy and hold.
type Simulator struct {
	engine domsvc.StateEngine
}

// NewSimulator creates a simulator over the given state engine.
func NewSimulator(engine domsvc.StateEngine) *Simulator {
	return &Simulator{engine: engine}
}

// Run validates cfg, classifies bars and folds the exposure rules over them.
func (s *Simulator) Run(bars []models.PriceBar, cfg models.StrategyConfig) (*models.SimulationResult, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	states, err := s.engine.States(bars)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	return Fold(states, cfg)
}

// Fold runs the exposure backtest over a precomputed, consecutive state
// stream. The first state is the starting bar: capital is fully invested
// there and each later bar's return is applied to the exposure chosen at the
// previous close.
func Fold(states []models.MarketState, cfg models.StrategyConfig) (*models.SimulationResult, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("simulation: %w", &models.InsufficientHistoryError{Have: 0, Need: 1})
	}

	daily := make([]models.SimulationState, 0, len(states))
	dailyRate := cfg.InterestRateAnnual / 365

	value := cfg.InitialCapital
	bench := cfg.InitialCapital
	realized := 1.0
	peak, benchPeak := value, bench
	var totalFees, totalInterest float64
	trades := 0

	for k, st := range states {
		var interest float64
		if k > 0 {
			r := st.Close/states[k-1].Close - 1
			invested := value * realized
			cash := value - invested
			interest = cash * dailyRate
			value = invested*(1+r) + cash + interest
			bench *= 1 + r
			totalInterest += interest
		}

		target := ExposureFor(st, cfg)
		var fee float64
		traded := false
		if math.Abs(target-realized) > TradeEpsilon {
			fee = math.Abs(target-realized) * value * cfg.TradingFeePct
			value -= fee
			totalFees += fee
			realized = target
			traded = true
			trades++
		}

		peak = math.Max(peak, value)
		benchPeak = math.Max(benchPeak, bench)

		daily = append(daily, models.SimulationState{
			Date:              st.Date,
			Close:             st.Close,
			SMA:               st.SMA,
			Criticality:       st.Criticality,
			Regime:            st.Regime,
			Phase:             st.Phase,
			Trend:             st.Trend,
			TargetExposure:    target,
			RealizedExposure:  realized,
			Traded:            traded,
			Fee:               fee,
			Interest:          interest,
			StrategyValue:     value,
			BenchmarkValue:    bench,
			StrategyDrawdown:  value/peak - 1,
			BenchmarkDrawdown: bench/benchPeak - 1,
		})
	}

	return &models.SimulationResult{
		Summary: summarize(daily, cfg, trades, totalFees, totalInterest),
		Daily:   daily,
		Equity:  monthlyEquity(daily),
	}, nil
}

func summarize(daily []models.SimulationState, cfg models.StrategyConfig, trades int, fees, interest float64) models.SimulationSummary {
	n := len(daily)
	stratValues := make([]float64, n)
	benchValues := make([]float64, n)
	var exposureSum float64
	var full, partial, cash int
	stratMDD, benchMDD := 0.0, 0.0

	for i, d := range daily {
		stratValues[i] = d.StrategyValue
		benchValues[i] = d.BenchmarkValue
		exposureSum += d.RealizedExposure
		switch {
		case d.RealizedExposure >= 1:
			full++
		case d.RealizedExposure <= 0:
			cash++
		default:
			partial++
		}
		stratMDD = math.Min(stratMDD, d.StrategyDrawdown)
		benchMDD = math.Min(benchMDD, d.BenchmarkDrawdown)
	}

	strategy := curveSummary(stratValues, cfg.InitialCapital, stratMDD)
	strategy.TradeCount = trades
	strategy.AvgExposurePct = exposureSum / float64(n) * 100

	benchmark := curveSummary(benchValues, cfg.InitialCapital, benchMDD)
	benchmark.AvgExposurePct = 100

	last := daily[n-1]
	return models.SimulationSummary{
		Strategy:           strategy,
		Benchmark:          benchmark,
		StrategyName:       cfg.Name,
		InitialCapital:     cfg.InitialCapital,
		StartDate:          daily[0].Date,
		EndDate:            last.Date,
		TotalDays:          n,
		OutperformancePct:  strategy.TotalReturnPct - benchmark.TotalReturnPct,
		OutperformanceAbs:  last.StrategyValue - last.BenchmarkValue,
		DrawdownProtection: strategy.MaxDrawdownPct - benchmark.MaxDrawdownPct,
		TotalFees:          fees,
		TotalInterest:      interest,
		NetFriction:        interest - fees,
		DaysFullyInvested:  full,
		DaysPartial:        partial,
		DaysInCash:         cash,
	}
}

func curveSummary(values []float64, capital, maxDrawdown float64) models.StrategySummary {
	final := values[len(values)-1]
	ret := (final/capital - 1) * 100
	vol := features.StdDev(features.PctReturns(values)[1:]) * math.Sqrt(tradingDaysPerYear) * 100
	ratio := 0.0
	if vol > 0 {
		ratio = ret / vol
	}
	return models.StrategySummary{
		FinalValue:       final,
		TotalReturnPct:   ret,
		MaxDrawdownPct:   maxDrawdown * 100,
		AnnualizedVolPct: vol,
		ReturnToVolRatio: ratio,
	}
}

// monthlyEquity keeps the last row of every calendar month.
func monthlyEquity(daily []models.SimulationState) []models.EquityPoint {
	var out []models.EquityPoint
	for i, d := range daily {
		if i+1 < len(daily) {
			next := daily[i+1].Date
			if next.Year() == d.Date.Year() && next.Month() == d.Date.Month() {
				continue
			}
		}
		out = append(out, models.EquityPoint{
			Date:           d.Date,
			StrategyValue:  d.StrategyValue,
			BenchmarkValue: d.BenchmarkValue,
			ExposurePct:    d.RealizedExposure * 100,
			Criticality:    d.Criticality,
		})
	}
	return out
}
