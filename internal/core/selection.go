package core

// Selection returns the selected ids in selection order.
func (s *DiagramStore) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selection...)
}

// IsSelected reports whether id is part of the selection.
func (s *DiagramStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsID(s.selection, id)
}

// Select replaces the selection. Unknown and repeated ids are dropped.
func (s *DiagramStore) Select(ids ...string) {
	s.updateSelection(func(current []string) []string {
		return s.uniqueResolvable(nil, ids)
	})
}

// AddToSelection extends the selection with ids not already selected.
func (s *DiagramStore) AddToSelection(ids ...string) {
	s.updateSelection(func(current []string) []string {
		return s.uniqueResolvable(append([]string(nil), current...), ids)
	})
}

// RemoveFromSelection drops ids from the selection.
func (s *DiagramStore) RemoveFromSelection(ids ...string) {
	drop := idSet(ids...)
	s.updateSelection(func(current []string) []string {
		out := make([]string, 0, len(current))
		for _, id := range current {
			if _, ok := drop[id]; !ok {
				out = append(out, id)
			}
		}
		return out
	})
}

// ClearSelection empties the selection.
func (s *DiagramStore) ClearSelection() {
	s.updateSelection(func([]string) []string { return nil })
}

// SelectAll selects every node. Lines are not included.
func (s *DiagramStore) SelectAll() {
	s.updateSelection(func([]string) []string {
		nodes := s.diagram.Nodes()
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.ElementID())
		}
		return s.uniqueResolvable(nil, out)
	})
}

// updateSelection installs next(current) and notifies observers. The diagram,
// history and dirty flag are untouched.
func (s *DiagramStore) updateSelection(next func(current []string) []string) {
	s.mu.Lock()
	s.selection = next(s.selection)
	ev := ChangeEvent{Op: OpSelect, IDs: append([]string(nil), s.selection...), Version: s.version}
	observers := s.snapshotObservers()
	s.mu.Unlock()
	notify(observers, ev)
}

// uniqueResolvable appends to dst every id in ids that resolves in the
// current diagram and is not yet in dst. Callers hold the lock.
func (s *DiagramStore) uniqueResolvable(dst, ids []string) []string {
	seen := idSet(dst...)
	for _, id := range ids {
		if _, dup := seen[id]; dup || !s.index.Contains(id) {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
