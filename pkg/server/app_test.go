package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seismograph/pkg/config"
)

type closer struct {
	name  string
	order *[]string
}

func (c closer) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func TestAppRateLimitsAndCloses(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit.Burst = 2
	cfg.Server.RateLimit.PerSecond = 0.001
	cfg.Metrics.Enabled = false
	cfg.Server.Port = 0

	var order []string
	app := New(cfg, nil, nil,
		Resource{Name: "clickhouse", Closer: closer{"clickhouse", &order}},
		Resource{Name: "kafka", Closer: closer{"kafka", &order}},
	)
	e := app.Server().Echo()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client still has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics route disabled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
	assert.Equal(t, []string{"kafka", "clickhouse"}, order)
}
