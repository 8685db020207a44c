package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/services/forensics"
	"seismograph/internal/services/regime"
	"seismograph/internal/testutil"
	"seismograph/internal/usecase"
	xlogger "seismograph/pkg/logger"
)

type stubFetcher map[string][]models.PriceBar

func (f stubFetcher) FetchPriceHistory(_ context.Context, symbol string, period domrepo.Period) (*models.PriceSeries, error) {
	bars, ok := f[symbol]
	if !ok {
		return nil, &models.DataUnavailableError{Symbol: symbol, Period: string(period)}
	}
	return &models.PriceSeries{Symbol: symbol, Period: string(period), AsOf: bars[len(bars)-1].Date, Bars: bars}, nil
}

type recordingCache struct {
	dropped []string
}

func (c *recordingCache) Get(context.Context, string, domrepo.Period, time.Time) (*models.PriceSeries, bool, error) {
	return nil, false, nil
}
func (c *recordingCache) Set(context.Context, *models.PriceSeries) error { return nil }
func (c *recordingCache) Invalidate(context.Context, string, domrepo.Period, time.Time) error {
	return nil
}
func (c *recordingCache) InvalidateSymbol(_ context.Context, symbol string) error {
	c.dropped = append(c.dropped, symbol)
	return nil
}

func newTestServer(t *testing.T, cache domrepo.HistoryCache) *echo.Echo {
	t.Helper()
	engine, err := regime.NewDefaultEngine()
	require.NoError(t, err)

	fetcher := stubFetcher{
		"SPY": testutil.Bars(testutil.RandomWalk(5, 700, 100, 0.0003, 0.01)),
		"TLT": testutil.Bars(testutil.RandomWalk(6, 700, 100, 0.0001, 0.006)),
		"NEW": testutil.Bars(testutil.Linear(10, 12, 60)),
	}
	states := usecase.NewMarketStateUseCase(fetcher, engine)
	analysis := usecase.NewAnalysisUseCase(states, forensics.NewAnalyzer(forensics.DefaultConfig()))
	portfolio := usecase.NewPortfolioUseCase(states, engine.Classifier().Thresholds(), 2)

	h := NewMarketHandler(xlogger.Nop(), states, analysis, portfolio, cache, "", nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStateEndpoint(t *testing.T) {
	e := newTestServer(t, nil)

	rec, env := do(t, e, http.MethodGet, "/api/state/SPY?strategy=aggressive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "private, max-age=300", rec.Header().Get(echo.HeaderCacheControl))

	var live models.LiveState
	require.NoError(t, json.Unmarshal(env.Data, &live))
	assert.Equal(t, "SPY", live.Symbol)
	assert.Equal(t, "aggressive", live.Raw.StrategyMode)
	assert.Contains(t, []models.TrendSignal{models.TrendSignalBull, models.TrendSignalBear}, live.TrendSignal)
}

func TestErrorMapping(t *testing.T) {
	e := newTestServer(t, nil)

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"short history", "/api/state/NEW", http.StatusUnprocessableEntity},
		{"unknown symbol", "/api/forensics/GONE", http.StatusNotFound},
		{"bad period", "/api/state/SPY?period=3w", http.StatusBadRequest},
		{"bad strategy", "/api/simulation/SPY?strategy=yolo", http.StatusBadRequest},
		{"bad ticker", "/api/state/SP%24Y", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, e, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, env.Status)
		})
	}
}

func TestRegimesFine(t *testing.T) {
	e := newTestServer(t, nil)

	rec, env := do(t, e, http.MethodGet, "/api/regimes/SPY?fine=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.RegimeStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.NotEmpty(t, stats.Rows)
	phases := map[string]bool{}
	for _, p := range models.Phases {
		phases[string(p)] = true
	}
	for _, r := range stats.Rows {
		assert.True(t, phases[r.Label], r.Label)
	}
}

func TestPortfolioEndpoint(t *testing.T) {
	e := newTestServer(t, nil)

	rec, env := do(t, e, http.MethodPost, "/api/portfolio", `{"holdings":{"SPY":0.7,"TLT":0.3}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var r models.PortfolioReport
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Len(t, r.Assets, 2)
	assert.Empty(t, r.History)
	assert.Equal(t, "5y", r.Period)

	rec, _ = do(t, e, http.MethodPost, "/api/portfolio", `{"holdings":{"SPY":0.7,"TLT":0.7}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/portfolio", `{"holdings":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateCache(t *testing.T) {
	cache := &recordingCache{}
	e := newTestServer(t, cache)

	rec, _ := do(t, e, http.MethodDelete, "/api/cache/spy", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"spy"}, cache.dropped)
}
