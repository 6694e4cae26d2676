package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// APILatency is the end-to-end latency of indicator endpoints,
	// including the price load.
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quantpanel",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of indicator endpoints",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// APIOutcomes counts indicator responses by outcome state.
	APIOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpanel",
			Subsystem: "api",
			Name:      "outcomes_total",
			Help:      "Indicator responses by endpoint and outcome state",
		},
		[]string{"endpoint", "state"},
	)

	// APIRateLimited counts requests rejected by the per-client limiter.
	APIRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpanel",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

// Register adds the API collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIOutcomes, APIRateLimited)
	})
}
