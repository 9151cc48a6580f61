package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pidcore/pkg/domain"
)

func tank(id, tag string) domain.Equipment {
	return domain.NewEquipment(domain.EquipmentSpec{
		ID:       id,
		Tag:      tag,
		Category: domain.EquipmentTank,
		Nozzles:  domain.DefaultNozzles(domain.EquipmentTank),
	})
}

func pump(id, tag string) domain.Equipment {
	return domain.NewEquipment(domain.EquipmentSpec{
		ID:       id,
		Tag:      tag,
		Category: domain.EquipmentPump,
		Nozzles:  domain.DefaultNozzles(domain.EquipmentPump),
	})
}

func gate(id, tag string) domain.Valve {
	return domain.NewValve(domain.ValveSpec{ID: id, Tag: tag, Category: domain.ValveGate})
}

func pipe(id, from, to string) domain.ProcessLine {
	return domain.NewLine(domain.LineSpec{
		ID:     id,
		Source: domain.Endpoint{ElementID: from, ConnectionPoint: domain.PointOutlet},
		Target: domain.Endpoint{ElementID: to, ConnectionPoint: domain.PointInlet},
	})
}

// seededStore holds TK-101 -> XV-101 -> P-101 joined by two lines.
func seededStore(t *testing.T, opts ...StoreOption) *DiagramStore {
	t.Helper()
	s := NewDiagramStore(opts...)
	_, err := s.AddEquipment(tank("tk", "TK-101"))
	require.NoError(t, err)
	_, err = s.AddValve(gate("xv", "XV-101"))
	require.NoError(t, err)
	_, err = s.AddEquipment(pump("p", "P-101"))
	require.NoError(t, err)
	_, err = s.AddLine(pipe("l1", "tk", "xv"))
	require.NoError(t, err)
	_, err = s.AddLine(pipe("l2", "xv", "p"))
	require.NoError(t, err)
	return s
}

func nodeIDs(nodes []domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ElementID())
	}
	return out
}

func lineIDs(lines []domain.ProcessLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.ID)
	}
	return out
}

type eventLog struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (l *eventLog) observe(ev ChangeEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) ops() []Op {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Op, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Op)
	}
	return out
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	mu      sync.Mutex
	calls   []metricsCall
	past    int
	future  int
	results []domain.ValidationResult
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.mu.Lock()
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
	c.mu.Unlock()
}

func (c *captureMetricsRecorder) HistoryDepth(past, future int) {
	c.mu.Lock()
	c.past, c.future = past, future
	c.mu.Unlock()
}

func (c *captureMetricsRecorder) ValidationIssues(res domain.ValidationResult) {
	c.mu.Lock()
	c.results = append(c.results, res)
	c.mu.Unlock()
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

func (c *captureMetricsRecorder) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.op == op {
			n++
		}
	}
	return n
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	mu      sync.Mutex
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.mu.Lock()
	c.started = append(c.started, op)
	c.mu.Unlock()
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
	s.tracer.mu.Unlock()
}
