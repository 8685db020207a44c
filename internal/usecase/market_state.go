package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	domsvc "seismograph/internal/domain/service"
	svcmetrics "seismograph/internal/service/metrics"
	"seismograph/internal/services/simulation"
	applogger "seismograph/pkg/logger"
	pkgmetrics "seismograph/pkg/metrics"
)

// Option configures the use cases' optional collaborators.
type Option func(*deps)

type deps struct {
	store     domrepo.BarStore
	publisher domrepo.StatePublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	timeout   time.Duration
}

func newDeps(opts []Option) deps {
	d := deps{metrics: pkgmetrics.Nop{}, l: applogger.Nop(), timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithBarStore persists fetched bars and computed states.
func WithBarStore(s domrepo.BarStore) Option { return func(d *deps) { d.store = s } }

// WithPublisher announces live regime transitions.
func WithPublisher(p domrepo.StatePublisher) Option { return func(d *deps) { d.publisher = p } }

// WithMetrics records latency, errors and live gauges.
func WithMetrics(m domrepo.Metrics) Option { return func(d *deps) { d.metrics = m } }

// WithLogger sets the structured logger.
func WithLogger(l *applogger.Logger) Option { return func(d *deps) { d.l = l } }

// WithTimeout bounds a whole request.
func WithTimeout(t time.Duration) Option { return func(d *deps) { d.timeout = t } }

// History is a fetched series with its causal state stream. States[k]
// belongs to Bars[Floor+k].
type History struct {
	Series *models.PriceSeries
	States []models.MarketState
	Floor  int
}

// MarketStateUseCase answers "what should my exposure be today".
type MarketStateUseCase struct {
	fetcher domrepo.PriceFetcher
	engine  domsvc.StateEngine
	deps

	mu   sync.Mutex
	last map[string]models.MarketState
}

// NewMarketStateUseCase classifies what fetcher returns with engine. Store,
// publisher, metrics and logger come from opts.
func NewMarketStateUseCase(fetcher domrepo.PriceFetcher, engine domsvc.StateEngine, opts ...Option) *MarketStateUseCase {
	return &MarketStateUseCase{
		fetcher: fetcher,
		engine:  engine,
		deps:    newDeps(opts),
		last:    make(map[string]models.MarketState),
	}
}

// History fetches bars and classifies them once. When the provider has no
// data and a bar store is configured, the stored bars for the period are
// used instead.
func (uc *MarketStateUseCase) History(ctx context.Context, symbol string, period domrepo.Period) (*History, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	fresh := true
	series, err := uc.fetcher.FetchPriceHistory(ctx, symbol, period)
	if err != nil {
		uc.metrics.RecordError("fetch")
		stored, ok := uc.stored(ctx, symbol, period, err)
		if !ok {
			return nil, err
		}
		series, fresh = stored, false
	}
	start := time.Now()
	states, err := uc.engine.States(series.Bars)
	uc.metrics.RecordLatency("classify", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError("classify")
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	h := &History{Series: series, States: states, Floor: uc.engine.MinLookback() - 1}
	if fresh {
		uc.persist(ctx, symbol, h)
	}
	return h, nil
}

// stored loads previously persisted bars after fetchErr. Only a
// DataUnavailable fetch falls back; an empty or failing store keeps fetchErr.
func (uc *MarketStateUseCase) stored(ctx context.Context, symbol string, period domrepo.Period, fetchErr error) (*models.PriceSeries, bool) {
	if uc.store == nil || !errors.Is(fetchErr, models.ErrDataUnavailable) || ctx.Err() != nil {
		return nil, false
	}
	now := time.Now().UTC()
	bars, err := uc.store.LoadBars(ctx, symbol, period.Start(now), now)
	if err != nil {
		uc.metrics.RecordError("store")
		uc.l.Warn("load bars failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, false
	}
	if len(bars) == 0 || models.ValidateBars(bars) != nil {
		return nil, false
	}
	uc.l.Warn("serving stored history",
		applogger.String("symbol", symbol),
		applogger.String("period", string(period)),
		applogger.Int("bars", len(bars)),
		applogger.Error(fetchErr),
	)
	return &models.PriceSeries{
		Symbol: symbol,
		Period: string(period),
		AsOf:   bars[len(bars)-1].Date,
		Bars:   bars,
	}, true
}

// Current runs the exposure fold over the full history and reports its
// last row, so the live answer always matches the backtest.
func (uc *MarketStateUseCase) Current(ctx context.Context, symbol string, period domrepo.Period, cfg models.StrategyConfig) (*models.LiveState, error) {
	if err := simulation.Validate(cfg); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	defer func() { uc.metrics.RecordLatency("current_state", time.Since(start).Seconds()) }()

	h, err := uc.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	res, err := simulation.Fold(h.States, cfg)
	if err != nil {
		return nil, err
	}
	live := LiveFromFold(h.Series.Symbol, h.States[len(h.States)-1], res.Daily[len(res.Daily)-1], cfg)

	uc.metrics.RecordCriticality(live.Symbol, live.Criticality)
	uc.metrics.RecordExposure(live.Symbol, live.ExposurePct/100)
	uc.observe(ctx, live.Symbol, h.States[len(h.States)-1])

	uc.l.Info("live state computed",
		applogger.String("symbol", live.Symbol),
		applogger.Date("as_of", live.AsOf),
		applogger.String("regime", string(live.Regime)),
		applogger.Float("criticality", live.Criticality),
		applogger.Float("exposure_pct", live.ExposurePct),
	)
	return live, nil
}

// LiveFromFold maps the last state and fold row onto the live report.
func LiveFromFold(symbol string, st models.MarketState, row models.SimulationState, cfg models.StrategyConfig) *models.LiveState {
	uptrend := st.Close > st.SMA
	signal := models.TrendSignalBear
	if uptrend {
		signal = models.TrendSignalBull
	}
	return &models.LiveState{
		Symbol:      symbol,
		AsOf:        st.Date,
		IsInvested:  row.RealizedExposure > 0,
		ExposurePct: row.RealizedExposure * 100,
		Regime:      st.Regime,
		Phase:       st.Phase,
		Criticality: st.Criticality,
		TrendSignal: signal,
		Trend:       st.Trend,
		Reasons:     append([]models.ReasonCode(nil), st.Reasons...),
		Raw: models.RawMetrics{
			CurrentPrice:         st.Close,
			SMA:                  st.SMA,
			PriceDeviationPct:    st.PriceDeviationPct,
			Volatility:           st.Volatility,
			VolatilityPercentile: st.VolatilityPercentile,
			Drawdown:             st.Drawdown,
			IsUptrend:            uptrend,
			StrategyMode:         cfg.Name,
			HighStressExposure:   cfg.HighStressExposure * 100,
			MediumStressExposure: cfg.MediumStressExposure * 100,
			BearMarketExposure:   cfg.BearMarketExposure * 100,
		},
	}
}

// observe publishes a transition when the latest regime differs from the
// one seen on the previous call for symbol.
func (uc *MarketStateUseCase) observe(ctx context.Context, symbol string, st models.MarketState) {
	uc.mu.Lock()
	prev, seen := uc.last[symbol]
	uc.last[symbol] = st
	uc.mu.Unlock()

	if !seen || prev.Regime == st.Regime || !st.Date.After(prev.Date) {
		return
	}
	t := models.RegimeTransition{
		Symbol:      symbol,
		Date:        st.Date,
		From:        prev.Regime,
		To:          st.Regime,
		FromPhase:   prev.Phase,
		ToPhase:     st.Phase,
		Criticality: st.Criticality,
	}
	svcmetrics.RegimeTransitions.WithLabelValues(symbol, string(st.Regime)).Inc()
	uc.l.Warn("regime transition",
		applogger.String("symbol", symbol),
		applogger.String("from", string(t.From)),
		applogger.String("to", string(t.To)),
		applogger.Float("criticality", t.Criticality),
	)
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishTransition(ctx, t); err != nil {
		uc.metrics.RecordError("publish")
		uc.l.Error("publish transition failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}

// persist writes bars and states when a store is configured. Failures are
// logged; analysis does not depend on the store.
func (uc *MarketStateUseCase) persist(ctx context.Context, symbol string, h *History) {
	if uc.store == nil {
		return
	}
	if err := uc.store.SaveBars(ctx, symbol, h.Series.Bars); err != nil {
		uc.metrics.RecordError("store")
		uc.l.Warn("save bars failed", applogger.String("symbol", symbol), applogger.Error(err))
		return
	}
	if err := uc.store.SaveStates(ctx, symbol, h.States); err != nil {
		uc.metrics.RecordError("store")
		uc.l.Warn("save states failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}
