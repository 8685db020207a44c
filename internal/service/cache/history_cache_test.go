package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/domain/repository"
	pkgcache "seismograph/pkg/cache"
)

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchPriceHistory(_ context.Context, symbol string, period repository.Period) (*models.PriceSeries, error) {
	f.calls++
	return &models.PriceSeries{
		Symbol: symbol,
		Period: string(period),
		Bars:   []models.PriceBar{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1}},
	}, nil
}

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func TestHistoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	hc := NewHistoryCache(mem, time.Hour)

	_, ok, err := hc.Get(ctx, "spy", repository.Period5Y, day(1))
	require.NoError(t, err)
	assert.False(t, ok)

	in := &models.PriceSeries{Symbol: "SPY", Period: "5y", AsOf: day(1), Bars: []models.PriceBar{{Close: 10}}}
	require.NoError(t, hc.Set(ctx, in))
	in.Bars[0].Close = 99

	out, ok, err := hc.Get(ctx, "spy", repository.Period5Y, day(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, out.Bars[0].Close)
}

func TestHistoryCacheInvalidateSymbol(t *testing.T) {
	ctx := context.Background()
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	hc := NewHistoryCache(mem, 0)

	require.NoError(t, hc.Set(ctx, &models.PriceSeries{Symbol: "SPY", Period: "5y", AsOf: day(1)}))
	require.NoError(t, hc.Set(ctx, &models.PriceSeries{Symbol: "SPY", Period: "1y", AsOf: day(2)}))
	require.NoError(t, hc.Set(ctx, &models.PriceSeries{Symbol: "SPYX", Period: "5y", AsOf: day(1)}))

	require.NoError(t, hc.InvalidateSymbol(ctx, "spy"))

	_, ok, _ := hc.Get(ctx, "SPY", repository.Period5Y, day(1))
	assert.False(t, ok)
	_, ok, _ = hc.Get(ctx, "SPY", repository.Period1Y, day(2))
	assert.False(t, ok)
	_, ok, _ = hc.Get(ctx, "SPYX", repository.Period5Y, day(1))
	assert.True(t, ok)
}

func TestCachedFetcherHitsUpstreamOncePerDay(t *testing.T) {
	ctx := context.Background()
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	up := &countingFetcher{}
	f := NewCachedFetcher(up, NewHistoryCache(mem, 0))
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		s, err := f.FetchPriceHistory(ctx, "SPY", repository.Period5Y)
		require.NoError(t, err)
		require.Len(t, s.Bars, 1)
	}
	assert.Equal(t, 1, up.calls)

	now = now.Add(24 * time.Hour)
	_, err := f.FetchPriceHistory(ctx, "SPY", repository.Period5Y)
	require.NoError(t, err)
	assert.Equal(t, 2, up.calls)
}
