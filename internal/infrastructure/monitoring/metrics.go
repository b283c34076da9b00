package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Sync metrics (client side)
	SyncRequests *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec

	// Registry metrics
	RegistryApps   prometheus.Gauge
	UnwrapMissing  prometheus.Counter
	UnwrapRejected prometheus.Counter

	// Circuit breaker
	BreakerState prometheus.Gauge

	// HTTP metrics (dev server side)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the metric families on reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SyncRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appsync_sync_requests_total",
				Help: "Total number of sync requests sent to the app endpoint",
			},
			[]string{"method", "status"},
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appsync_sync_duration_seconds",
				Help:    "Sync request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),

		RegistryApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "appsync_registry_apps",
				Help: "Number of apps held by the registry",
			},
		),
		UnwrapMissing: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "appsync_unwrap_missing_total",
				Help: "Responses that had no apps field",
			},
		),
		UnwrapRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "appsync_unwrap_rejected_total",
				Help: "Responses rejected at the unwrap boundary",
			},
		),

		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "appsync_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appsync_devserver_requests_total",
				Help: "Total number of HTTP requests served by the dev server",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appsync_devserver_request_duration_seconds",
				Help:    "Dev server request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordSync records one sync request
func (m *Metrics) RecordSync(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SyncRequests.WithLabelValues(method, status).Inc()
	m.SyncDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetRegistryApps sets the number of apps in registry
func (m *Metrics) SetRegistryApps(count int) {
	if m == nil {
		return
	}
	m.RegistryApps.Set(float64(count))
}

// IncUnwrapMissing counts a response without an apps field
func (m *Metrics) IncUnwrapMissing() {
	if m == nil {
		return
	}
	m.UnwrapMissing.Inc()
}

// IncUnwrapRejected counts a malformed response
func (m *Metrics) IncUnwrapRejected() {
	if m == nil {
		return
	}
	m.UnwrapRejected.Inc()
}

// SetBreakerState publishes the numeric breaker state
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// RecordHTTPRequest records a request served by the dev server
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
