package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordFetch("yahoo", "SPY")
	r.RecordFetch("yahoo", "SPY")
	r.RecordError("fetch")
	r.RecordCriticality("SPY", 63.5)
	r.RecordExposure("SPY", 0.5)
	r.RecordLatency("simulate", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("yahoo", "SPY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("fetch")))
	assert.Equal(t, 63.5, testutil.ToFloat64(r.criticality.WithLabelValues("SPY")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.exposure.WithLabelValues("SPY")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
