package service

import (
	"context"
	"strings"
	"time"

	"kiln_studio/internal/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder receives the outcome of every service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, err error, duration time.Duration)
}

// Metrics records operation counts and latencies in Prometheus collectors.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiln_studio",
			Name:      "operations_total",
			Help:      "Service operations by result (ok or the lower-cased error code).",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kiln_studio",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.duration)
	}
	return m
}

// Observe implements MetricsRecorder.
func (m *Metrics) Observe(_ context.Context, operation string, err error, d time.Duration) {
	m.ops.WithLabelValues(operation, resultLabel(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// Counter exposes the operations counter for inspection.
func (m *Metrics) Counter() *prometheus.CounterVec { return m.ops }

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperr.CodeOf(err)))
}

type nopMetrics struct{}

func (nopMetrics) Observe(context.Context, string, error, time.Duration) {}
