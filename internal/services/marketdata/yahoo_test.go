package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	"seismograph/internal/domain/repository"
)

const chartJSON = `{"chart":{"result":[{
  "meta":{"symbol":"SPY","exchangeTimezoneName":"UTC"},
  "timestamp":[1704205800,1704292200,1704378600,1704465000],
  "indicators":{
    "quote":[{
      "open":[100,101,null,103],
      "high":[102,103,null,104],
      "low":[99,100,null,101],
      "close":[101,102,null,102],
      "volume":[1000,1100,null,null]
    }],
    "adjclose":[{"adjclose":[50.5,51,null,51]}]
  }}],"error":null}}`

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Rate = 1000
	cfg.Burst = 10
	cfg.Retries = 0
	return cfg
}

func TestFetchPriceHistory(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil, nil)
	s, err := f.FetchPriceHistory(context.Background(), "spy", repository.Period2Y)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/SPY", gotPath)
	assert.Equal(t, "2y", gotRange)
	assert.Equal(t, "SPY", s.Symbol)
	require.Len(t, s.Bars, 3, "null row skipped")

	first := s.Bars[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.InDelta(t, 50.0, first.Open, 1e-9)
	assert.InDelta(t, 50.5, first.Close, 1e-9)
	assert.Equal(t, 1000.0, first.Volume)
	assert.Equal(t, 0.0, s.Bars[2].Volume)
	assert.Equal(t, s.Bars[2].Date, s.AsOf)
}

func TestNonPositiveRowsAreSkipped(t *testing.T) {
	const body = `{"chart":{"result":[{
  "meta":{"symbol":"SPY","exchangeTimezoneName":"UTC"},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{"quote":[{
    "open":[100,0,103],
    "high":[102,103,104],
    "low":[99,100,-1],
    "close":[101,102,102],
    "volume":[1000,1100,1200]
  }]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	s, err := NewFetcher(testConfig(srv.URL), nil, nil).FetchPriceHistory(context.Background(), "SPY", repository.Period1Y)
	require.NoError(t, err)
	require.Len(t, s.Bars, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), s.Bars[0].Date)
	assert.Equal(t, 101.0, s.Bars[0].Close, "no adjclose column keeps raw prices")
}

func TestFetchUnknownSymbolIsDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil, nil)
	_, err := f.FetchPriceHistory(context.Background(), "NOPE", repository.Period5Y)

	var du *models.DataUnavailableError
	require.True(t, errors.As(err, &du))
	assert.Equal(t, "NOPE", du.Symbol)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(srv.URL), nil, nil)
	for i := 0; i < 5; i++ {
		_, err := f.FetchPriceHistory(context.Background(), "SPY", repository.Period5Y)
		assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	}
	assert.Equal(t, 3, calls, "breaker trips after min requests")
}

func TestTransientFailureIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 2
	cfg.RetryBackoff = time.Millisecond
	s, err := NewFetcher(cfg, nil, nil).FetchPriceHistory(context.Background(), "SPY", repository.Period5Y)
	require.NoError(t, err)
	assert.Len(t, s.Bars, 3)
	assert.Equal(t, 2, calls)
}

func TestEmptySymbol(t *testing.T) {
	f := NewFetcher(testConfig("http://127.0.0.1:1"), nil, nil)
	_, err := f.FetchPriceHistory(context.Background(), "  ", repository.Period5Y)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}
