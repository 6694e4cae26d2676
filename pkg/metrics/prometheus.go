package metrics

import (
	"QuantPanel/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal   *prometheus.CounterVec
	cacheTotal  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastClose   *prometheus.GaugeVec
	lastZScore  *prometheus.GaugeVec
	lastStoch   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the collectors on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpanel_pipeline_runs_total",
				Help: "Pipeline runs by symbol and outcome state",
			},
			[]string{"symbol", "state"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpanel_price_cache_total",
				Help: "Price cache lookups by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpanel_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantpanel_last_close",
				Help: "Latest close of the last successful run",
			},
			[]string{"symbol"},
		),
		lastZScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantpanel_last_zscore",
				Help: "Latest Z-score of the last successful run",
			},
			[]string{"symbol"},
		),
		lastStoch: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantpanel_last_stochastic",
				Help: "Latest stochastic value of the last successful run",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantpanel_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRun(symbol string, state models.State) {
	r.runsTotal.WithLabelValues(symbol, string(state)).Inc()
}

func (r *Recorder) RecordCache(result string) {
	r.cacheTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSummary exports the latest values so dashboards can alert on zones.
func (r *Recorder) RecordSummary(symbol string, s models.Summary) {
	r.lastClose.WithLabelValues(symbol).Set(s.Close)
	r.lastZScore.WithLabelValues(symbol).Set(s.ZScore)
	r.lastStoch.WithLabelValues(symbol).Set(s.Stochastic)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
