package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/services/portfolio"
	"seismograph/internal/services/regime"
	applogger "seismograph/pkg/logger"
)

// maxConcurrentFetches bounds upstream calls per portfolio request.
const maxConcurrentFetches = 4

// PortfolioUseCase aggregates the states of weighted holdings.
type PortfolioUseCase struct {
	states        *MarketStateUseCase
	thresholds    regime.Thresholds
	confirmations int
	deps
}

// NewPortfolioUseCase labels the weighted criticality with thresholds and
// requires confirmations consecutive readings before a label changes.
func NewPortfolioUseCase(states *MarketStateUseCase, thresholds regime.Thresholds, confirmations int, opts ...Option) *PortfolioUseCase {
	if confirmations < 1 {
		confirmations = 1
	}
	return &PortfolioUseCase{
		states:        states,
		thresholds:    thresholds,
		confirmations: confirmations,
		deps:          newDeps(opts),
	}
}

// Evaluate fetches every holding's state stream concurrently and returns the
// hysteresis-smoothed portfolio state on the latest shared date. When the
// holdings share no dates the latest state of each asset is combined as-is.
func (uc *PortfolioUseCase) Evaluate(ctx context.Context, holdings map[string]float64, period domrepo.Period) (*models.PortfolioReport, error) {
	weights := make(map[string]float64, len(holdings))
	for s, w := range holdings {
		weights[strings.ToUpper(strings.TrimSpace(s))] += w
	}
	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	// weights are checked before any fetch
	probe := portfolio.Input{Assets: make([]models.PortfolioAsset, 0, len(symbols))}
	for _, s := range symbols {
		probe.Assets = append(probe.Assets, models.PortfolioAsset{Symbol: s, Weight: weights[s]})
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	histories := make([]*History, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, s := range symbols {
		g.Go(func() error {
			h, err := uc.states.History(gctx, s, period)
			if err != nil {
				return err
			}
			histories[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("portfolio")
		return nil, err
	}

	streams := make(map[string][]models.MarketState, len(symbols))
	in := portfolio.Input{Assets: make([]models.PortfolioAsset, 0, len(symbols))}
	for i, s := range symbols {
		h := histories[i]
		streams[s] = h.States
		in.Assets = append(in.Assets, models.PortfolioAsset{
			Symbol: s,
			Weight: weights[s],
			State:  h.States[len(h.States)-1],
		})
	}

	series, err := portfolio.Series(streams, weights, uc.thresholds, uc.confirmations)
	if err != nil {
		uc.metrics.RecordError("portfolio")
		return nil, err
	}
	var current models.PortfolioState
	if len(series) > 0 {
		current = series[len(series)-1]
	} else {
		ps, err := portfolio.Compute(in, uc.thresholds)
		if err != nil {
			return nil, err
		}
		current = *ps
		uc.l.Warn("holdings share no dates; combining latest states",
			applogger.Strings("symbols", symbols),
		)
	}

	uc.metrics.RecordLatency("portfolio", time.Since(start).Seconds())
	uc.l.Info("portfolio evaluated",
		applogger.Strings("symbols", symbols),
		applogger.Float("criticality", current.Criticality),
		applogger.String("regime", string(current.Regime)),
		applogger.Int("aligned_dates", len(series)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return &models.PortfolioReport{
		Period:  string(period),
		State:   current,
		Assets:  in.Assets,
		History: series,
	}, nil
}
