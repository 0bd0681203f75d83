package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for the fetch and compute pipeline.
type Metrics struct {
	CacheHits     *prometheus.CounterVec // labels: kind
	CacheMisses   *prometheus.CounterVec // labels: kind
	FetchErrors   *prometheus.CounterVec // labels: kind
	SessionResets prometheus.Counter

	IndicatorComputeDur prometheus.Histogram
	IndicatorRowsTotal  prometheus.Counter

	// Symbols dropped from a comparison batch after a failed lookup.
	BatchOmitted prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_cache_hits_total",
			Help: "Fetch cache hits by query kind",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_cache_misses_total",
			Help: "Fetch cache misses (collaborator calls) by query kind",
		}, []string{"kind"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_fetch_errors_total",
			Help: "Failed collaborator fetches by query kind",
		}, []string{"kind"}),
		SessionResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_cache_session_resets_total",
			Help: "Fetch cache session resets",
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocklens_indicator_compute_duration_seconds",
			Help:    "Indicator engine latency per request",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		IndicatorRowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_indicator_rows_total",
			Help: "Total indicator rows computed",
		}),
		BatchOmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_compare_omitted_total",
			Help: "Symbols omitted from comparison tables after a failed lookup",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.FetchErrors,
		m.SessionResets,
		m.IndicatorComputeDur,
		m.IndicatorRowsTotal,
		m.BatchOmitted,
	)
	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
