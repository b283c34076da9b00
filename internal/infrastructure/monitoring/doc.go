/*
Package monitoring provides Prometheus metrics for appsync.

# Overview

Client-side metrics cover every sync request against the app endpoint, the
registry size, unwrap anomalies and the circuit breaker state. The dev server
records its own request metrics through the Gin middleware.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	timer := monitoring.NewTimer(metrics, http.MethodGet)
	// ... perform request ...
	timer.Stop("200")

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring
