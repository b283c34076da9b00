package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSync(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSync(http.MethodGet, "200", 10*time.Millisecond)
	m.RecordSync(http.MethodGet, "200", 20*time.Millisecond)
	m.RecordSync(http.MethodPost, "error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncRequests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRequests.WithLabelValues(http.MethodPost, "error")))
}

func TestRegistryGauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetRegistryApps(4)
	m.IncUnwrapMissing()
	m.IncUnwrapRejected()
	m.IncUnwrapRejected()
	m.SetBreakerState(2)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.RegistryApps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnwrapMissing))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnwrapRejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSync(http.MethodGet, "200", time.Millisecond)
		m.SetRegistryApps(1)
		m.IncUnwrapMissing()
		m.IncUnwrapRejected()
		m.SetBreakerState(0)
		m.RecordHTTPRequest(http.MethodGet, "/app", "200", time.Millisecond)
		NewTimer(m, http.MethodGet).Stop("200")
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/app", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"apps": []any{}})
	})

	for _, path := range []string{"/app", "/app", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/app", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	elapsed := NewTimer(m, http.MethodDelete).Stop("204")

	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRequests.WithLabelValues(http.MethodDelete, "204")))
}
