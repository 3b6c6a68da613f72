// Package metrics exports the worker's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by endpoint, method and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatindex_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration measures HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heatindex_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// ReadingsIngested counts raw readings folded into the summaries.
	ReadingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatindex_readings_ingested_total",
			Help: "Total number of raw readings aggregated",
		},
	)

	// ReadingsRejected counts readings rejected before any write.
	ReadingsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatindex_readings_rejected_total",
			Help: "Total number of readings rejected by validation or registry lookup",
		},
	)

	// AlertsEmitted counts appended alert records by hazard level.
	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatindex_alerts_emitted_total",
			Help: "Total number of hazard alerts appended",
		},
		[]string{"level"},
	)

	// RecomputeRuns counts successful rollup recompute invocations.
	RecomputeRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatindex_recompute_runs_total",
			Help: "Total number of successful rollup recomputations",
		},
	)

	// WriteFailures counts individual downstream write failures (the
	// operation itself may still report partial success semantics).
	WriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatindex_write_failures_total",
			Help: "Total number of failed downstream document writes",
		},
	)
)
