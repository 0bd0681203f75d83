package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CacheHits.WithLabelValues("info").Inc()
	m.CacheMisses.WithLabelValues("info").Add(2)
	m.IndicatorComputeDur.Observe(0.0002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("info")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("info")))
	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)
	a.SessionResets.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionResets))
}

func TestHandler(t *testing.T) {
	m := NewMetrics(nil)
	m.FetchErrors.WithLabelValues("price_history").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stocklens_fetch_errors_total{kind="price_history"} 1`)
	assert.Contains(t, w.Body.String(), "stocklens_indicator_compute_duration_seconds_bucket")
}
