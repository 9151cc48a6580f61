package core

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"pidcore/pkg/domain"
)

// gathered returns the value of the first sample of name whose labels match;
// histograms report their sample count.
func gathered(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorderCountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)
	s := NewDiagramStore(WithStoreMetrics(rec))

	_, err := s.AddEquipment(tank("tk", "TK-101"))
	require.NoError(t, err)
	_, err = s.AddEquipment(tank("tk", "TK-101"))
	require.Error(t, err)
	_, err = s.AddValve(gate("xv", "XV-101"))
	require.NoError(t, err)
	require.True(t, s.Undo())

	ok := map[string]string{"operation": string(OpAddEquipment), "result": "success"}
	failed := map[string]string{"operation": string(OpAddEquipment), "result": "error"}
	require.Equal(t, 1.0, gathered(t, reg, "pidcore_operations_total", ok))
	require.Equal(t, 1.0, gathered(t, reg, "pidcore_operations_total", failed))
	require.Equal(t, 2.0, gathered(t, reg, "pidcore_operation_duration_seconds", map[string]string{"operation": string(OpAddEquipment)}))
	require.Equal(t, 1.0, gathered(t, reg, "pidcore_history_depth", map[string]string{"stack": "undo"}))
	require.Equal(t, 1.0, gathered(t, reg, "pidcore_history_depth", map[string]string{"stack": "redo"}))
}

func TestPrometheusRecorderValidationGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)
	rec.ValidationIssues(domain.ValidationResult{
		Valid: false,
		Issues: []domain.Issue{
			{Rule: domain.RuleOrphanLine, Severity: domain.SeverityError},
			{Rule: domain.RuleOrphanLine, Severity: domain.SeverityError},
			{Rule: domain.RuleMissingTag, Severity: domain.SeverityWarning},
		},
	})
	require.Equal(t, 2.0, gathered(t, reg, "pidcore_validation_issues", map[string]string{"rule": string(domain.RuleOrphanLine)}))
	require.Equal(t, 0.0, gathered(t, reg, "pidcore_diagram_valid", nil))

	rec.ValidationIssues(domain.ValidationResult{Valid: true})
	require.Equal(t, 1.0, gathered(t, reg, "pidcore_diagram_valid", nil))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		require.NotEqual(t, "pidcore_validation_issues", mf.GetName(), "issue gauges reset between runs")
	}
}

func TestPrometheusRecorderIgnoresUnnamedOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)
	rec.Observe(context.Background(), "", true, time.Millisecond)
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		require.NotEqual(t, "pidcore_operations_total", mf.GetName())
	}
}

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	require.NotEmpty(t, recorder.Name())
	recorder.Observe(context.Background(), "test_op", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "test_op", false, 5*time.Millisecond)
	recorder.HistoryDepth(3, 1)
	recorder.ValidationIssues(domain.ValidationResult{Summary: domain.Summary{Errors: 2, Warnings: 1}})

	snapshot := recorder.Snapshot()
	require.InDelta(t, 15.0, snapshot.DurationsMS["test_op"], 0.001)
	require.EqualValues(t, 1, snapshot.Results["test_op"]["success"])
	require.EqualValues(t, 1, snapshot.Results["test_op"]["error"])
	require.Equal(t, 3, snapshot.UndoDepth)
	require.Equal(t, 1, snapshot.RedoDepth)
	require.NotNil(t, snapshot.Validation)
	require.Equal(t, 2, snapshot.Validation.Errors)

	v := expvar.Get(recorder.Name())
	require.NotNil(t, v)
	require.Contains(t, v.String(), "test_op")
	require.Contains(t, v.String(), `"undo_depth":3`)
}

func TestExpvarSnapshotIsDetached(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	recorder.Observe(context.Background(), "op", true, time.Millisecond)
	snap := recorder.Snapshot()
	snap.Results["op"]["success"] = 100
	require.EqualValues(t, 1, recorder.Snapshot().Results["op"]["success"])
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "trace_op")
	span.End(nil)
	span.End(errors.New("ignored second end"))
	_, failing := tracer.Start(context.Background(), "trace_fail")
	failing.End(errors.New("boom"))

	entries := tracer.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "trace_op", entries[0].Operation)
	require.Equal(t, "success", entries[0].Status)
	require.Equal(t, "error", entries[1].Status)
	require.Equal(t, "boom", entries[1].Error)
	require.Contains(t, buf.String(), `"operation":"trace_op"`)
	require.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestJSONTracerWithoutWriter(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "op")
	span.End(nil)
	require.Len(t, tracer.Entries(), 1)
}
