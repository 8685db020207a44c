package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"seismograph/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	criticality  *prometheus.GaugeVec
	exposure     *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismograph_history_fetches_total",
				Help: "Total number of price histories fetched",
			},
			[]string{"source", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismograph_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		criticality: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seismograph_criticality_score",
				Help: "Latest criticality score for a symbol",
			},
			[]string{"symbol"},
		),
		exposure: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seismograph_exposure_ratio",
				Help: "Latest recommended exposure for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seismograph_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records a history fetched from source.
func (r *Recorder) RecordFetch(source, symbol string) {
	r.fetchesTotal.WithLabelValues(source, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordCriticality(symbol string, criticality float64) {
	r.criticality.WithLabelValues(symbol).Set(criticality)
}

func (r *Recorder) RecordExposure(symbol string, exposure float64) {
	r.exposure.WithLabelValues(symbol).Set(exposure)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordFetch(string, string)        {}
func (Nop) RecordError(string)                {}
func (Nop) RecordCriticality(string, float64) {}
func (Nop) RecordExposure(string, float64)    {}
func (Nop) RecordLatency(string, float64)     {}
