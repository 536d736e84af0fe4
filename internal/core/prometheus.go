package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem prefixes every service metric name.
const MetricsSubsystem = "agritrace_service"

// PrometheusMetricsRecorder exports operation counts and latencies as
// Prometheus collectors.
type PrometheusMetricsRecorder struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the service collectors with
// registry.
func NewPrometheusMetricsRecorder(registry prometheus.Registerer) *PrometheusMetricsRecorder {
	rec := &PrometheusMetricsRecorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: MetricsSubsystem,
			Name:      "operations_total",
			Help:      "Registry operations by outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: MetricsSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Registry operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	registry.MustRegister(rec.calls, rec.duration)
	return rec
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := string(AuditStatusSuccess)
	if !success {
		outcome = string(AuditStatusError)
	}
	r.calls.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
	r.duration.With(prometheus.Labels{"operation": operation}).Observe(duration.Seconds())
}
