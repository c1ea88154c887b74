// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	runs               *prometheus.CounterVec
	runDuration        prometheus.Histogram
	classifierFailures *prometheus.CounterVec
	deliveries         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mask_sentry_runs_total",
			Help: "Inspections by final pipeline state",
		}, []string{"state"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mask_sentry_run_duration_seconds",
			Help:    "End to end inspection duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		classifierFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mask_sentry_classifier_failures_total",
			Help: "Classifier calls without a usable verdict, by failure kind",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mask_sentry_alert_deliveries_total",
			Help: "Alert delivery attempts by sink and result",
		}, []string{"sink", "result"}),
	}

	m.registry.MustRegister(m.runs, m.runDuration, m.classifierFailures, m.deliveries)
	return m
}

// RunFinished records a completed inspection.
func (m *Metrics) RunFinished(state string, d time.Duration) {
	m.runs.WithLabelValues(state).Inc()
	m.runDuration.Observe(d.Seconds())
}

// ClassifierFailed records a classification that produced no verdict.
func (m *Metrics) ClassifierFailed(kind string) {
	m.classifierFailures.WithLabelValues(kind).Inc()
}

// AlertDelivered records one sink attempt.
func (m *Metrics) AlertDelivered(sink string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.deliveries.WithLabelValues(sink, result).Inc()
}

// Handler returns the Prometheus HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
