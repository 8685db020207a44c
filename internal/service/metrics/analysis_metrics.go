package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalysisLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seismograph",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of analysis endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seismograph",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by analysis endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	RegimeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seismograph",
			Subsystem: "regime",
			Name:      "transitions_total",
			Help:      "Live regime changes by destination regime",
		},
		[]string{"symbol", "to"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalysisLatency, AnalysisErrors, RegimeTransitions)
	})
}
