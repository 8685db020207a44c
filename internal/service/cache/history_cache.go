package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seismograph/internal/domain/models"
	"seismograph/internal/domain/repository"
	pkgcache "seismograph/pkg/cache"
	"seismograph/pkg/util"
)

const historyPrefix = "history"

// HistoryCache stores price series in a pkg/cache backend.
type HistoryCache struct {
	store pkgcache.Service
	ttl   time.Duration
}

var _ repository.HistoryCache = (*HistoryCache)(nil)

// NewHistoryCache wraps store. A zero ttl keeps entries until invalidated.
func NewHistoryCache(store pkgcache.Service, ttl time.Duration) *HistoryCache {
	return &HistoryCache{store: store, ttl: ttl}
}

func historyKey(symbol string, period repository.Period, asOf time.Time) string {
	return pkgcache.GenerateKeyWithParams(historyPrefix, strings.ToUpper(symbol), string(period), asOf.Format(models.DateLayout))
}

func (c *HistoryCache) Get(ctx context.Context, symbol string, period repository.Period, asOf time.Time) (*models.PriceSeries, bool, error) {
	var series models.PriceSeries
	err := c.store.Get(ctx, historyKey(symbol, period, asOf), &series)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("history cache get %s: %w", symbol, err)
	}
	return &series, true, nil
}

func (c *HistoryCache) Set(ctx context.Context, series *models.PriceSeries) error {
	if series == nil {
		return errors.New("history cache set: nil series")
	}
	key := historyKey(series.Symbol, repository.Period(series.Period), series.AsOf)
	if err := c.store.Set(ctx, key, series, c.ttl); err != nil {
		return fmt.Errorf("history cache set %s: %w", series.Symbol, err)
	}
	return nil
}

func (c *HistoryCache) Invalidate(ctx context.Context, symbol string, period repository.Period, asOf time.Time) error {
	return c.store.Delete(ctx, historyKey(symbol, period, asOf))
}

// InvalidateSymbol drops every cached period and date for symbol.
func (c *HistoryCache) InvalidateSymbol(ctx context.Context, symbol string) error {
	prefix := pkgcache.GenerateKey(historyPrefix, strings.ToUpper(symbol)) + ":"
	return c.store.DeleteByPattern(ctx, pkgcache.BuildPattern(prefix))
}

// CachedFetcher serves histories from a cache before asking the upstream
// fetcher. Entries are keyed by the calendar date of the request.
type CachedFetcher struct {
	next  repository.PriceFetcher
	cache repository.HistoryCache
	now   func() time.Time
}

var _ repository.PriceFetcher = (*CachedFetcher)(nil)

// NewCachedFetcher serves from cache and falls through to next on a miss.
func NewCachedFetcher(next repository.PriceFetcher, cache repository.HistoryCache) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, now: time.Now}
}

func (f *CachedFetcher) FetchPriceHistory(ctx context.Context, symbol string, period repository.Period) (*models.PriceSeries, error) {
	asOf := util.TruncateDay(f.now())
	if s, ok, err := f.cache.Get(ctx, symbol, period, asOf); err == nil && ok {
		return s, nil
	}
	s, err := f.next.FetchPriceHistory(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	stored := s.Clone()
	stored.Symbol = strings.ToUpper(symbol)
	stored.Period = string(period)
	stored.AsOf = asOf
	// a failed write only costs a refetch
	_ = f.cache.Set(ctx, stored)
	return s, nil
}
