package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pidcore/pkg/domain"
)

// ErrDuplicateID is returned when an added element reuses an id already
// present anywhere in the diagram.
var ErrDuplicateID = errors.New("duplicate element id")

// errNoChange aborts an edit that turned out to have nothing to do.
var errNoChange = errors.New("no change")

// DiagramStore owns the live diagram, the selection and the undo history.
// Every structural edit installs a new diagram value and records the previous
// one, so an edit either fully applies or is not observed at all.
type DiagramStore struct {
	mu        sync.RWMutex
	diagram   domain.Diagram
	index     *domain.Index
	version   uint64
	dirty     bool
	selection []string
	history   *history
	tags      domain.TagSequence
	observers []Observer

	logger  *slog.Logger
	metrics MetricsRecorder
}

// StoreOption configures a DiagramStore.
type StoreOption func(*DiagramStore)

// WithHistoryLimit bounds the undo stack. Non-positive values select
// DefaultHistoryLimit.
func WithHistoryLimit(limit int) StoreOption {
	return func(s *DiagramStore) {
		s.history = newHistory(limit)
	}
}

// WithStoreLogger sets the logger used for mutation tracing.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *DiagramStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreMetrics sets the recorder that observes each operation.
func WithStoreMetrics(metrics MetricsRecorder) StoreOption {
	return func(s *DiagramStore) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewDiagramStore constructs a store holding a blank diagram.
func NewDiagramStore(opts ...StoreOption) *DiagramStore {
	s := &DiagramStore{
		history: newHistory(DefaultHistoryLimit),
		logger:  discardLogger(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.install(domain.NewDiagram(domain.DiagramSpec{}))
	return s
}

// install replaces the current diagram. Callers hold the write lock.
func (s *DiagramStore) install(d domain.Diagram) {
	s.diagram = d
	s.index = domain.NewIndex(d)
	s.version++
}

// edit applies fn to a shallow copy of the current diagram. fn must replace,
// never modify, any collection it changes. A non-nil error leaves the store
// untouched; otherwise the prior diagram is pushed to history before the
// result is installed.
func (s *DiagramStore) edit(op Op, fn func(d *domain.Diagram) ([]string, error)) error {
	start := time.Now()
	s.mu.Lock()
	next := s.diagram
	ids, err := fn(&next)
	if errors.Is(err, errNoChange) {
		s.mu.Unlock()
		s.logger.Debug("edit skipped", "op", op)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.metrics.Observe(context.Background(), string(op), false, time.Since(start))
		s.logger.Debug("edit rejected", "op", op, "error", err)
		return err
	}
	s.history.push(s.diagram)
	s.install(next)
	s.dirty = true
	if len(s.selection) > 0 {
		s.selection = s.resolvable(s.selection)
	}
	ev := ChangeEvent{Op: op, IDs: ids, Version: s.version, Structural: true}
	observers := s.snapshotObservers()
	past, future := s.history.depth()
	s.mu.Unlock()

	s.metrics.Observe(context.Background(), string(op), true, time.Since(start))
	recordHistoryDepth(s.metrics, past, future)
	s.logger.Debug("diagram edited", "op", op, "ids", ids, "version", ev.Version)
	notify(observers, ev)
	return nil
}

// resolvable filters ids to those present in the current diagram.
func (s *DiagramStore) resolvable(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if s.index.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *DiagramStore) snapshotObservers() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	return append([]Observer(nil), s.observers...)
}

func notify(observers []Observer, ev ChangeEvent) {
	for _, fn := range observers {
		fn(ev)
	}
}

// OnChange registers an observer called after every completed operation.
func (s *DiagramStore) OnChange(fn Observer) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Diagram returns a deep copy of the current diagram.
func (s *DiagramStore) Diagram() domain.Diagram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagram.Clone()
}

// View runs fn against the current snapshot and its index without copying.
// fn must not retain or modify the diagram's slices.
func (s *DiagramStore) View(fn func(d domain.Diagram, idx *domain.Index)) {
	s.mu.RLock()
	d, idx := s.diagram, s.index
	s.mu.RUnlock()
	fn(d, idx)
}

// Version increases with every installed diagram, including undo and redo.
func (s *DiagramStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// IsDirty reports unsaved changes since the last load, save or new diagram.
func (s *DiagramStore) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSaved clears the dirty flag after an external save.
func (s *DiagramStore) MarkSaved() {
	s.markSaved(0)
}

// markSaved clears the dirty flag if version is zero or still current, so an
// edit that lands while a save is in flight keeps the diagram dirty.
func (s *DiagramStore) markSaved(version uint64) bool {
	s.mu.Lock()
	if version != 0 && version != s.version {
		s.mu.Unlock()
		return false
	}
	s.dirty = false
	ev := ChangeEvent{Op: OpMarkSaved, Version: s.version}
	observers := s.snapshotObservers()
	s.mu.Unlock()
	notify(observers, ev)
	return true
}

// snapshot returns the current diagram, its index and version together.
func (s *DiagramStore) snapshot() (domain.Diagram, *domain.Index, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagram, s.index, s.version
}

// CanUndo reports whether Undo would change the diagram.
func (s *DiagramStore) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	past, _ := s.history.depth()
	return past > 0
}

// CanRedo reports whether Redo would change the diagram.
func (s *DiagramStore) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, future := s.history.depth()
	return future > 0
}

// HistoryDepth returns the undo and redo stack sizes.
func (s *DiagramStore) HistoryDepth() (past, future int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.depth()
}

// NodeByID resolves a non-line element.
func (s *DiagramStore) NodeByID(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.index.Lookup(id)
	if !ok {
		return nil, false
	}
	n, ok := domain.CloneElement(el).(domain.Node)
	return n, ok
}

// LineByID resolves a line.
func (s *DiagramStore) LineByID(id string) (domain.ProcessLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.index.Lookup(id)
	if !ok {
		return domain.ProcessLine{}, false
	}
	l, ok := el.(domain.ProcessLine)
	if !ok {
		return domain.ProcessLine{}, false
	}
	return l.Clone(), true
}

// Nodes returns copies of every node in collection order.
func (s *DiagramStore) Nodes() []domain.Node {
	s.mu.RLock()
	nodes := s.diagram.Nodes()
	s.mu.RUnlock()
	for i, n := range nodes {
		nodes[i] = domain.CloneElement(n).(domain.Node)
	}
	return nodes
}

// Lines returns copies of every line.
func (s *DiagramStore) Lines() []domain.ProcessLine {
	s.mu.RLock()
	lines := s.diagram.Lines
	s.mu.RUnlock()
	out := make([]domain.ProcessLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// Undo restores the state preceding the most recent edit, keeping the current
// viewport. The selection is cleared and the diagram is marked dirty. It reports false when there is
// nothing to undo.
func (s *DiagramStore) Undo() bool {
	return s.step(OpUndo, s.history.undo)
}

// Redo reapplies the most recently undone edit.
func (s *DiagramStore) Redo() bool {
	return s.step(OpRedo, s.history.redo)
}

func (s *DiagramStore) step(op Op, move func(domain.Diagram) (domain.Diagram, bool)) bool {
	start := time.Now()
	s.mu.Lock()
	target, ok := move(s.diagram)
	if !ok {
		s.mu.Unlock()
		return false
	}
	target.Viewport = s.diagram.Viewport
	s.install(target)
	s.selection = nil
	s.dirty = true
	ev := ChangeEvent{Op: op, Version: s.version, Structural: true}
	observers := s.snapshotObservers()
	past, future := s.history.depth()
	s.mu.Unlock()

	s.metrics.Observe(context.Background(), string(op), true, time.Since(start))
	recordHistoryDepth(s.metrics, past, future)
	s.logger.Debug("history step", "op", op, "version", ev.Version, "past", past, "future", future)
	notify(observers, ev)
	return true
}

// SetDiagram replaces the diagram wholesale, as when a file is loaded. The
// prior diagram is pushed to history so the load can be undone; the dirty flag
// and selection are cleared and the tag sequence is re-seeded from d.
func (s *DiagramStore) SetDiagram(d domain.Diagram) {
	d = d.Clone()
	d.Normalize()
	s.mu.Lock()
	s.history.push(s.diagram)
	s.install(d)
	s.dirty = false
	s.selection = nil
	s.tags.Reset()
	s.tags.ObserveDiagram(d)
	ev := ChangeEvent{Op: OpSetDiagram, Version: s.version, Structural: true}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	s.metrics.Observe(context.Background(), string(OpSetDiagram), true, 0)
	s.logger.Info("diagram loaded", "diagram_id", d.ID, "elements", d.Len(), "version", ev.Version)
	notify(observers, ev)
}

// NewDiagram installs a blank diagram and discards all history.
func (s *DiagramStore) NewDiagram() domain.Diagram {
	d := domain.NewDiagram(domain.DiagramSpec{})
	s.mu.Lock()
	s.history.reset()
	s.install(d)
	s.dirty = false
	s.selection = nil
	s.tags.Reset()
	ev := ChangeEvent{Op: OpNewDiagram, Version: s.version, Structural: true}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	recordHistoryDepth(s.metrics, 0, 0)
	s.logger.Info("new diagram", "diagram_id", d.ID)
	notify(observers, ev)
	return d.Clone()
}

// UpdateMetadata edits the title block.
func (s *DiagramStore) UpdateMetadata(mutator func(*domain.DiagramMetadata)) {
	_ = s.edit(OpUpdateMetadata, func(d *domain.Diagram) ([]string, error) {
		if mutator != nil {
			mutator(&d.Metadata)
		}
		return nil, nil
	})
}

// SetViewport stores the pan/zoom state without recording history or marking
// the diagram dirty. Undo and Redo keep the current viewport.
func (s *DiagramStore) SetViewport(vp domain.Viewport) {
	s.mu.Lock()
	next := s.diagram
	next.Viewport = &vp
	s.diagram = next
	s.index = domain.NewIndex(next)
	ev := ChangeEvent{Op: OpSetViewport, Version: s.version}
	observers := s.snapshotObservers()
	s.mu.Unlock()
	notify(observers, ev)
}

func (s *DiagramStore) checkNewID(id string) error {
	if s.index.Contains(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
