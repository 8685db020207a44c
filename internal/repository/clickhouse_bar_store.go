package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	pkgch "seismograph/pkg/clickhouse"
	applogger "seismograph/pkg/logger"
)

const (
	barsTable   = "daily_bars"
	statesTable = "market_states"
)

// Schema holds the idempotent DDL for the bar store.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + barsTable + ` (
        symbol LowCardinality(String),
        date   Date,
        open   Float64,
        high   Float64,
        low    Float64,
        close  Float64,
        volume Float64,
        ingested_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(ingested_at)
    ORDER BY (symbol, date)`,
	`CREATE TABLE IF NOT EXISTS ` + statesTable + ` (
        symbol      LowCardinality(String),
        date        Date,
        close       Float64,
        criticality Float64,
        regime      LowCardinality(String),
        phase       LowCardinality(String),
        trend       LowCardinality(String),
        volatility  Float64,
        volatility_percentile Float64,
        sma         Float64,
        price_deviation_pct Float64,
        drawdown    Float64,
        reasons     Array(String),
        computed_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(computed_at)
    ORDER BY (symbol, date)`,
}

// CHBarStore implements BarStore backed by ClickHouse.
type CHBarStore struct {
	ch *pkgch.Client
	l  *applogger.Logger
}

var _ domrepo.BarStore = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client, l *applogger.Logger) *CHBarStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHBarStore{ch: ch, l: l}
}

func (s *CHBarStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, Schema)
}

func (s *CHBarStore) SaveBars(ctx context.Context, symbol string, bars []models.PriceBar) error {
	query, rows := buildBarInsert(symbol, bars)
	if err := s.ch.InsertBatch(ctx, query, rows); err != nil {
		s.l.Error("clickhouse save_bars error",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("save bars %s: %w", symbol, err)
	}
	return nil
}

func (s *CHBarStore) SaveStates(ctx context.Context, symbol string, states []models.MarketState) error {
	query, rows := buildStateInsert(symbol, states)
	if err := s.ch.InsertBatch(ctx, query, rows); err != nil {
		s.l.Error("clickhouse save_states error",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("save states %s: %w", symbol, err)
	}
	return nil
}

func (s *CHBarStore) LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	const q = `
        SELECT date, open, high, low, close, volume
        FROM ` + barsTable + ` FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.ch.DB().QueryContext(ctx, q, strings.ToUpper(symbol), from, to)
	if err != nil {
		s.l.Error("clickhouse load_bars query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 1024)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = b.Date.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

// Close is a no-op; the client is owned by the caller.
func (s *CHBarStore) Close() error { return nil }

func buildBarInsert(symbol string, bars []models.PriceBar) (string, [][]any) {
	q := "INSERT INTO " + barsTable + " (symbol, date, open, high, low, close, volume)"
	sym := strings.ToUpper(symbol)
	rows := make([][]any, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []any{sym, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume})
	}
	return q, rows
}

func buildStateInsert(symbol string, states []models.MarketState) (string, [][]any) {
	q := "INSERT INTO " + statesTable + " (symbol, date, close, criticality, regime, phase, trend," +
		" volatility, volatility_percentile, sma, price_deviation_pct, drawdown, reasons)"
	sym := strings.ToUpper(symbol)
	rows := make([][]any, 0, len(states))
	for _, st := range states {
		reasons := make([]string, len(st.Reasons))
		for i, r := range st.Reasons {
			reasons[i] = string(r)
		}
		rows = append(rows, []any{
			sym, st.Date, st.Close, st.Criticality,
			string(st.Regime), string(st.Phase), string(st.Trend),
			st.Volatility, st.VolatilityPercentile, st.SMA, st.PriceDeviationPct, st.Drawdown,
			reasons,
		})
	}
	return q, rows
}
