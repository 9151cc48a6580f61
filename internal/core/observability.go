package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pidcore/pkg/domain"
)

// MetricsRecorder observes the outcome of store and service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// historyGauge is implemented by recorders that track undo stack depth.
type historyGauge interface {
	HistoryDepth(past, future int)
}

// validationObserver is implemented by recorders that track validation runs.
type validationObserver interface {
	ValidationIssues(res domain.ValidationResult)
}

// Tracer starts a span around a service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation's error, if any.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

func recordHistoryDepth(m MetricsRecorder, past, future int) {
	if g, ok := m.(historyGauge); ok {
		g.HistoryDepth(past, future)
	}
}

func recordValidation(m MetricsRecorder, res domain.ValidationResult) {
	if v, ok := m.(validationObserver); ok {
		v.ValidationIssues(res)
	}
}

// PrometheusRecorder exports operation counters, latency histograms, history
// depth and validation issue counts to a Prometheus registerer.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	history    *prometheus.GaugeVec
	issues     *prometheus.GaugeVec
	valid      prometheus.Gauge
}

// NewPrometheusRecorder registers the pidcore collectors with reg. A nil reg
// selects prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pidcore_operations_total",
			Help: "Store and service operations by name and result",
		}, []string{"operation", "result"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pidcore_operation_duration_seconds",
			Help:    "Duration of store and service operations",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"operation"}),
		history: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pidcore_history_depth",
			Help: "Entries on the undo and redo stacks",
		}, []string{"stack"}),
		issues: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pidcore_validation_issues",
			Help: "Issues reported by the most recent validation run, by rule and severity",
		}, []string{"rule", "severity"}),
		valid: f.NewGauge(prometheus.GaugeOpts{
			Name: "pidcore_diagram_valid",
			Help: "1 when the most recent validation run found no errors",
		}),
	}
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// HistoryDepth sets the undo and redo gauges.
func (r *PrometheusRecorder) HistoryDepth(past, future int) {
	r.history.WithLabelValues("undo").Set(float64(past))
	r.history.WithLabelValues("redo").Set(float64(future))
}

// ValidationIssues replaces the issue gauges with the counts in res.
func (r *PrometheusRecorder) ValidationIssues(res domain.ValidationResult) {
	r.issues.Reset()
	for _, issue := range res.Issues {
		r.issues.WithLabelValues(string(issue.Rule), string(issue.Severity)).Inc()
	}
	if res.Valid {
		r.valid.Set(1)
	} else {
		r.valid.Set(0)
	}
}
