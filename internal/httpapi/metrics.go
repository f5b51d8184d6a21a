package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	queryErrors *prometheus.CounterVec
}

// NewMetrics creates the API collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentidash",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sentidash",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentidash",
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Failed store queries by operation",
		}, []string{"op"}),
	}
	reg.MustRegister(m.requests, m.duration, m.queryErrors)
	return m
}
