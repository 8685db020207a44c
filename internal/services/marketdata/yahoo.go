package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"seismograph/internal/domain/models"
	"seismograph/internal/domain/repository"
	xhttp "seismograph/pkg/http"
	applogger "seismograph/pkg/logger"
)

const source = "yahoo"

// Config controls the chart API fetcher.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Rate      float64
	Burst     int
	// transient failures retried inside one breaker call
	Retries      int
	RetryBackoff time.Duration

	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:             "https://query1.finance.yahoo.com",
		UserAgent:           "Mozilla/5.0 (seismograph)",
		Timeout:             15 * time.Second,
		Rate:                2,
		Burst:               4,
		Retries:             2,
		RetryBackoff:        500 * time.Millisecond,
		BreakerMaxRequests:  1,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      30 * time.Second,
		BreakerFailureRatio: 0.6,
		BreakerMinRequests:  3,
	}
}

// Fetcher downloads daily bars from the Yahoo chart v8 endpoint. Requests
// are paced by a token bucket and guarded by a circuit breaker.
type Fetcher struct {
	cfg     Config
	client  *xhttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics repository.Metrics
	l       *applogger.Logger
}

var _ repository.PriceFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher from cfg. metrics and l may be nil.
func NewFetcher(cfg Config, metrics repository.Metrics, l *applogger.Logger) *Fetcher {
	if l == nil {
		l = applogger.Nop()
	}
	f := &Fetcher{
		cfg: cfg,
		client: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithRetry(cfg.Retries, cfg.RetryBackoff),
			xhttp.WithHeader("User-Agent", cfg.UserAgent),
		),
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		metrics: metrics,
		l:       l,
	}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marketdata-" + source,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.BreakerFailureRatio
		},
		// a missing symbol is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state change",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
	})
	return f
}

var errNoData = errors.New("no data returned")

// FetchPriceHistory returns adjusted daily bars for symbol over period.
func (f *Fetcher) FetchPriceHistory(ctx context.Context, symbol string, period repository.Period) (*models.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	unavailable := func(err error) error {
		if f.metrics != nil {
			f.metrics.RecordError("fetch")
		}
		return &models.DataUnavailableError{Symbol: symbol, Period: string(period), Cause: err}
	}
	if symbol == "" {
		return nil, unavailable(errors.New("empty symbol"))
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, unavailable(err)
	}

	start := time.Now()
	out, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetch(ctx, symbol, period)
	})
	if f.metrics != nil {
		f.metrics.RecordLatency("fetch_history", time.Since(start).Seconds())
	}
	if err != nil {
		f.l.Warn("price history unavailable",
			applogger.String("symbol", symbol),
			applogger.String("period", string(period)),
			applogger.Error(err),
		)
		return nil, unavailable(err)
	}

	bars := out.([]models.PriceBar)
	if f.metrics != nil {
		f.metrics.RecordFetch(source, symbol)
	}
	f.l.Debug("price history fetched",
		applogger.String("symbol", symbol),
		applogger.String("period", string(period)),
		applogger.Int("bars", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return &models.PriceSeries{
		Symbol: symbol,
		Period: string(period),
		AsOf:   bars[len(bars)-1].Date,
		Bars:   bars,
	}, nil
}

func (f *Fetcher) fetch(ctx context.Context, symbol string, period repository.Period) ([]models.PriceBar, error) {
	var resp chartResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", strings.TrimRight(f.cfg.BaseURL, "/"), url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"range":    {string(period)},
			"interval": {"1d"},
			"events":   {"history"},
		},
	}, &resp)
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: unknown symbol", errNoData)
	}
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", errNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errNoData
	}
	bars := resp.Chart.Result[0].bars()
	if len(bars) == 0 {
		return nil, errNoData
	}
	if err := models.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol           string `json:"symbol"`
		ExchangeTimezone string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// bars converts the columnar payload into split/dividend adjusted bars.
// Rows with a missing or non-positive price are skipped and duplicate dates
// keep the last row.
func (r chartResult) bars() []models.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	loc := time.UTC
	if r.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	byDate := make(map[time.Time]models.PriceBar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, h, lo, c := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if !positive(o, h, lo, c) {
			continue
		}
		factor := 1.0
		if a := at(adj, i); a != nil && *a > 0 {
			factor = *a / *c
		}
		var vol float64
		if v := at(q.Volume, i); v != nil {
			vol = *v
		}
		y, m, d := time.Unix(ts, 0).In(loc).Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		byDate[date] = models.PriceBar{
			Date:   date,
			Open:   *o * factor,
			High:   *h * factor,
			Low:    *lo * factor,
			Close:  *c * factor,
			Volume: vol,
		}
	}

	out := make([]models.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func positive(xs ...*float64) bool {
	for _, x := range xs {
		if x == nil || *x <= 0 {
			return false
		}
	}
	return true
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}
