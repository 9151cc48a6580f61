package core

import "pidcore/pkg/domain"

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 50

// history is a bounded linear undo/redo log. Entries are diagram values whose
// slices are never modified after installation, so unchanged collections are
// shared between entries instead of copied.
type history struct {
	past   []domain.Diagram
	future []domain.Diagram
	limit  int
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit}
}

// push records the state preceding a new edit and drops the redo branch.
func (h *history) push(prev domain.Diagram) {
	h.past = append(h.past, prev)
	if over := len(h.past) - h.limit; over > 0 {
		clear(h.past[:over])
		h.past = h.past[over:]
	}
	h.future = nil
}

func (h *history) undo(current domain.Diagram) (domain.Diagram, bool) {
	if len(h.past) == 0 {
		return domain.Diagram{}, false
	}
	last := len(h.past) - 1
	prev := h.past[last]
	h.past[last] = domain.Diagram{}
	h.past = h.past[:last]
	h.future = append(h.future, current)
	return prev, true
}

func (h *history) redo(current domain.Diagram) (domain.Diagram, bool) {
	if len(h.future) == 0 {
		return domain.Diagram{}, false
	}
	last := len(h.future) - 1
	next := h.future[last]
	h.future[last] = domain.Diagram{}
	h.future = h.future[:last]
	h.past = append(h.past, current)
	return next, true
}

func (h *history) reset() {
	h.past = nil
	h.future = nil
}

func (h *history) depth() (past, future int) {
	return len(h.past), len(h.future)
}
