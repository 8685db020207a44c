package repository

import (
	"context"
	"time"

	"seismograph/internal/domain/models"
)

// PriceFetcher retrieves daily bars for a symbol. Failures are reported as
// *models.DataUnavailableError.
type PriceFetcher interface {
	FetchPriceHistory(ctx context.Context, symbol string, period Period) (*models.PriceSeries, error)
}

// HistoryCache stores fetched series keyed by symbol, period and as-of date.
// Get returns a copy; callers may not observe later writes through it.
type HistoryCache interface {
	Get(ctx context.Context, symbol string, period Period, asOf time.Time) (*models.PriceSeries, bool, error)
	Set(ctx context.Context, series *models.PriceSeries) error
	Invalidate(ctx context.Context, symbol string, period Period, asOf time.Time) error
	InvalidateSymbol(ctx context.Context, symbol string) error
}

// BarStore persists bars and classified states.
type BarStore interface {
	Init(ctx context.Context) error
	SaveBars(ctx context.Context, symbol string, bars []models.PriceBar) error
	LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
	SaveStates(ctx context.Context, symbol string, states []models.MarketState) error
	Health(ctx context.Context) error
	Close() error
}

// StatePublisher announces regime changes.
type StatePublisher interface {
	PublishTransition(ctx context.Context, t models.RegimeTransition) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, symbol string)
	RecordError(kind string)
	RecordCriticality(symbol string, criticality float64)
	RecordExposure(symbol string, exposure float64)
	RecordLatency(op string, seconds float64)
}
