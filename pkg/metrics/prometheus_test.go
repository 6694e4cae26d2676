package metrics

import (
	"testing"

	"QuantPanel/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRun("AAPL", models.StateOK)
	r.RecordRun("AAPL", models.StateOK)
	r.RecordRun("AAPL", models.StateLoadFailure)
	r.RecordCache("hit")
	r.RecordError("cache_get")
	r.RecordSummary("AAPL", models.Summary{Close: 190.5, ZScore: -1.2, Stochastic: 33})
	r.RecordLatency("load_seconds", 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("AAPL", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("AAPL", "load_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("cache_get")))
	assert.Equal(t, 190.5, testutil.ToFloat64(r.lastClose.WithLabelValues("AAPL")))
	assert.Equal(t, -1.2, testutil.ToFloat64(r.lastZScore.WithLabelValues("AAPL")))
	assert.Equal(t, 33.0, testutil.ToFloat64(r.lastStoch.WithLabelValues("AAPL")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
