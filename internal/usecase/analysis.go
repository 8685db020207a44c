package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/services/forensics"
	"seismograph/internal/services/regimestats"
	"seismograph/internal/services/simulation"
	applogger "seismograph/pkg/logger"
)

// AnalysisUseCase runs every consumer of a state stream for one symbol.
type AnalysisUseCase struct {
	states   *MarketStateUseCase
	analyzer *forensics.Analyzer
	deps
}

// NewAnalysisUseCase builds reports on top of states' history loading.
func NewAnalysisUseCase(states *MarketStateUseCase, analyzer *forensics.Analyzer, opts ...Option) *AnalysisUseCase {
	return &AnalysisUseCase{states: states, analyzer: analyzer, deps: newDeps(opts)}
}

// Analyze fetches and classifies once, then computes the simulation, audit,
// crash forensics and regime statistics concurrently over the same frozen
// stream. The first failure cancels the rest and no partial report is
// returned.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, symbol string, period domrepo.Period, cfg models.StrategyConfig) (*models.AnalysisReport, error) {
	if err := simulation.Validate(cfg); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	h, err := uc.states.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	bars := h.Series.Bars

	var (
		sim         *models.SimulationResult
		audit       *models.AuditReport
		crashes     *models.CrashMetrics
		regimeStats *models.RegimeStats
		phaseStats  *models.RegimeStats
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if sim, err = simulation.Fold(h.States, cfg); err != nil {
			return err
		}
		if len(sim.Daily) >= simulation.DefaultAuditConfig().MinRows {
			audit, err = simulation.Audit(sim)
		}
		return err
	})
	g.Go(func() error {
		var err error
		crashes, err = uc.analyzer.Analyze(forensics.Input{Bars: bars, States: h.States})
		return err
	})
	g.Go(func() error {
		regimeStats = regimestats.Compute(h.States, regimestats.RegimeOptions())
		return nil
	})
	g.Go(func() error {
		phaseStats = regimestats.Compute(h.States, regimestats.PhaseOptions())
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("analyze")
		return nil, err
	}

	last := len(h.States) - 1
	live := LiveFromFold(h.Series.Symbol, h.States[last], sim.Daily[len(sim.Daily)-1], cfg)
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	uc.l.Info("analysis complete",
		applogger.String("symbol", h.Series.Symbol),
		applogger.String("period", string(period)),
		applogger.Int("bars", len(bars)),
		applogger.Int("states", len(h.States)),
		applogger.Int("crashes", crashes.TotalCrashes),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	return &models.AnalysisReport{
		Symbol:      h.Series.Symbol,
		Period:      string(period),
		Live:        *live,
		Simulation:  sim,
		Crashes:     crashes,
		RegimeStats: regimeStats,
		PhaseStats:  phaseStats,
		Audit:       audit,
	}, nil
}

// Simulate runs the exposure backtest alone.
func (uc *AnalysisUseCase) Simulate(ctx context.Context, symbol string, period domrepo.Period, cfg models.StrategyConfig) (*models.SimulationResult, error) {
	if err := simulation.Validate(cfg); err != nil {
		return nil, err
	}
	h, err := uc.history(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	res, err := simulation.Fold(h.States, cfg)
	if err != nil {
		uc.metrics.RecordError("simulate")
		return nil, err
	}
	uc.l.Debug("simulation complete",
		applogger.String("symbol", h.Series.Symbol),
		applogger.String("strategy", cfg.Name),
		applogger.Int("trades", res.Summary.Strategy.TradeCount),
	)
	return res, nil
}

// Audit grades the backtest of cfg during stress periods.
func (uc *AnalysisUseCase) Audit(ctx context.Context, symbol string, period domrepo.Period, cfg models.StrategyConfig) (*models.AuditReport, error) {
	res, err := uc.Simulate(ctx, symbol, period, cfg)
	if err != nil {
		return nil, err
	}
	return simulation.Audit(res)
}

// Forensics grades warnings against the symbol's crashes.
func (uc *AnalysisUseCase) Forensics(ctx context.Context, symbol string, period domrepo.Period) (*models.CrashMetrics, error) {
	h, err := uc.history(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return uc.analyzer.Analyze(forensics.Input{Bars: h.Series.Bars, States: h.States})
}

// Regimes returns duration statistics by coarse regime, or by phase when
// fine is set.
func (uc *AnalysisUseCase) Regimes(ctx context.Context, symbol string, period domrepo.Period, fine bool) (*models.RegimeStats, error) {
	h, err := uc.history(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	opts := regimestats.RegimeOptions()
	if fine {
		opts = regimestats.PhaseOptions()
	}
	return regimestats.Compute(h.States, opts), nil
}

func (uc *AnalysisUseCase) history(ctx context.Context, symbol string, period domrepo.Period) (*History, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.states.History(ctx, symbol, period)
}
