package core

import (
	"fmt"

	"pidcore/pkg/domain"
)

type entity[T any] interface {
	domain.Element
	Clone() T
}

func appendEntity[T any](items []T, v T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, v)
}

// replaceEntity runs mutator on a deep copy of the element with the given id
// and returns a new slice holding the result. restore re-applies fields the
// mutator may not change. The input slice is never written.
func replaceEntity[T entity[T]](items []T, id string, mutator func(*T) error, restore func(*T)) ([]T, bool, error) {
	for i := range items {
		if items[i].ElementID() != id {
			continue
		}
		edited := items[i].Clone()
		if mutator != nil {
			if err := mutator(&edited); err != nil {
				return items, true, err
			}
		}
		restore(&edited)
		out := make([]T, len(items))
		copy(out, items)
		out[i] = edited
		return out, true, nil
	}
	return items, false, nil
}

// removeEntities returns items without the elements whose ids are in drop,
// and the ids actually removed. The input slice is returned unchanged when
// nothing matched.
func removeEntities[T domain.Element](items []T, drop map[string]struct{}) ([]T, []string) {
	var removed []string
	for _, it := range items {
		if _, ok := drop[it.ElementID()]; ok {
			removed = append(removed, it.ElementID())
		}
	}
	if len(removed) == 0 {
		return items, nil
	}
	out := make([]T, 0, len(items)-len(removed))
	for _, it := range items {
		if _, ok := drop[it.ElementID()]; !ok {
			out = append(out, it)
		}
	}
	return out, removed
}

// cascadeLines drops every line that is itself in drop or has an end on an
// id in drop.
func cascadeLines(lines []domain.ProcessLine, drop map[string]struct{}) ([]domain.ProcessLine, []string) {
	hit := func(l domain.ProcessLine) bool {
		if _, ok := drop[l.ID]; ok {
			return true
		}
		if _, ok := drop[l.Source.ElementID]; ok {
			return true
		}
		_, ok := drop[l.Target.ElementID]
		return ok
	}
	var removed []string
	for _, l := range lines {
		if hit(l) {
			removed = append(removed, l.ID)
		}
	}
	if len(removed) == 0 {
		return lines, nil
	}
	out := make([]domain.ProcessLine, 0, len(lines)-len(removed))
	for _, l := range lines {
		if !hit(l) {
			out = append(out, l)
		}
	}
	return out, removed
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// prepareID assigns a fresh id when empty and rejects ids already in use.
func (s *DiagramStore) prepareID(id *string) error {
	if *id == "" {
		*id = domain.NewID()
	}
	return s.checkNewID(*id)
}

// AddEquipment appends equipment, assigning an id when empty.
func (s *DiagramStore) AddEquipment(e domain.Equipment) (domain.Equipment, error) {
	e = e.Clone()
	e.Type = domain.KindEquipment
	if e.Nozzles == nil {
		e.Nozzles = []domain.Nozzle{}
	}
	err := s.edit(OpAddEquipment, func(d *domain.Diagram) ([]string, error) {
		if err := s.prepareID(&e.ID); err != nil {
			return nil, err
		}
		d.Equipment = appendEntity(d.Equipment, e)
		s.tags.Observe(e.Tag)
		return []string{e.ID}, nil
	})
	if err != nil {
		return domain.Equipment{}, err
	}
	return e.Clone(), nil
}

// UpdateEquipment edits equipment through mutator, which receives a deep copy.
// The id and type discriminant cannot be changed. An unknown id leaves the
// collection unchanged but still records a history entry. A mutator error
// aborts the edit.
func (s *DiagramStore) UpdateEquipment(id string, mutator func(*domain.Equipment) error) error {
	return s.edit(OpUpdateEquipment, func(d *domain.Diagram) ([]string, error) {
		items, found, err := replaceEntity(d.Equipment, id, mutator, func(e *domain.Equipment) {
			e.ID, e.Type = id, domain.KindEquipment
		})
		if err != nil {
			return nil, err
		}
		d.Equipment = items
		return foundIDs(found, id), nil
	})
}

// RemoveEquipment deletes equipment and every line attached to it.
func (s *DiagramStore) RemoveEquipment(id string) {
	s.removeElements(OpRemoveEquipment, domain.KindEquipment, id)
}

// AddValve appends a valve, assigning an id when empty.
func (s *DiagramStore) AddValve(v domain.Valve) (domain.Valve, error) {
	v = v.Clone()
	v.Type = domain.KindValve
	err := s.edit(OpAddValve, func(d *domain.Diagram) ([]string, error) {
		if err := s.prepareID(&v.ID); err != nil {
			return nil, err
		}
		d.Valves = appendEntity(d.Valves, v)
		s.tags.Observe(v.Tag)
		return []string{v.ID}, nil
	})
	if err != nil {
		return domain.Valve{}, err
	}
	return v.Clone(), nil
}

// UpdateValve edits a valve; see UpdateEquipment.
func (s *DiagramStore) UpdateValve(id string, mutator func(*domain.Valve) error) error {
	return s.edit(OpUpdateValve, func(d *domain.Diagram) ([]string, error) {
		items, found, err := replaceEntity(d.Valves, id, mutator, func(v *domain.Valve) {
			v.ID, v.Type = id, domain.KindValve
		})
		if err != nil {
			return nil, err
		}
		d.Valves = items
		return foundIDs(found, id), nil
	})
}

// RemoveValve deletes a valve and every line attached to it.
func (s *DiagramStore) RemoveValve(id string) {
	s.removeElements(OpRemoveValve, domain.KindValve, id)
}

// AddInstrument appends an instrument, assigning an id when empty.
func (s *DiagramStore) AddInstrument(i domain.Instrument) (domain.Instrument, error) {
	i = i.Clone()
	i.Type = domain.KindInstrument
	err := s.edit(OpAddInstrument, func(d *domain.Diagram) ([]string, error) {
		if err := s.prepareID(&i.ID); err != nil {
			return nil, err
		}
		d.Instruments = appendEntity(d.Instruments, i)
		s.tags.Observe(i.Tag)
		return []string{i.ID}, nil
	})
	if err != nil {
		return domain.Instrument{}, err
	}
	return i.Clone(), nil
}

// UpdateInstrument edits an instrument; see UpdateEquipment.
func (s *DiagramStore) UpdateInstrument(id string, mutator func(*domain.Instrument) error) error {
	return s.edit(OpUpdateInstrument, func(d *domain.Diagram) ([]string, error) {
		items, found, err := replaceEntity(d.Instruments, id, mutator, func(i *domain.Instrument) {
			i.ID, i.Type = id, domain.KindInstrument
		})
		if err != nil {
			return nil, err
		}
		d.Instruments = items
		return foundIDs(found, id), nil
	})
}

// RemoveInstrument deletes an instrument and every line attached to it.
func (s *DiagramStore) RemoveInstrument(id string) {
	s.removeElements(OpRemoveInstrument, domain.KindInstrument, id)
}

// AddLine appends a line, assigning an id when empty. Endpoints are not
// checked; dangling references are reported by validation.
func (s *DiagramStore) AddLine(l domain.ProcessLine) (domain.ProcessLine, error) {
	l = l.Clone()
	l.Type = domain.KindLine
	if l.LineType == "" {
		l.LineType = domain.LineProcess
	}
	return s.addLine(OpAddLine, l)
}

func (s *DiagramStore) addLine(op Op, l domain.ProcessLine) (domain.ProcessLine, error) {
	err := s.edit(op, func(d *domain.Diagram) ([]string, error) {
		if err := s.prepareID(&l.ID); err != nil {
			return nil, err
		}
		d.Lines = appendEntity(d.Lines, l)
		return []string{l.ID}, nil
	})
	if err != nil {
		return domain.ProcessLine{}, err
	}
	return l.Clone(), nil
}

// UpdateLine edits a line; see UpdateEquipment.
func (s *DiagramStore) UpdateLine(id string, mutator func(*domain.ProcessLine) error) error {
	return s.edit(OpUpdateLine, func(d *domain.Diagram) ([]string, error) {
		items, found, err := replaceEntity(d.Lines, id, mutator, func(l *domain.ProcessLine) {
			l.ID, l.Type = id, domain.KindLine
		})
		if err != nil {
			return nil, err
		}
		d.Lines = items
		return foundIDs(found, id), nil
	})
}

// RemoveLine deletes a line.
func (s *DiagramStore) RemoveLine(id string) {
	s.removeElements(OpRemoveLine, domain.KindLine, id)
}

// AddAnnotation appends a text annotation, assigning an id when empty.
func (s *DiagramStore) AddAnnotation(a domain.TextAnnotation) (domain.TextAnnotation, error) {
	a = a.Clone()
	a.Type = domain.KindAnnotation
	err := s.edit(OpAddAnnotation, func(d *domain.Diagram) ([]string, error) {
		if err := s.prepareID(&a.ID); err != nil {
			return nil, err
		}
		d.Annotations = appendEntity(d.Annotations, a)
		return []string{a.ID}, nil
	})
	if err != nil {
		return domain.TextAnnotation{}, err
	}
	return a.Clone(), nil
}

// UpdateAnnotation edits an annotation; see UpdateEquipment.
func (s *DiagramStore) UpdateAnnotation(id string, mutator func(*domain.TextAnnotation) error) error {
	return s.edit(OpUpdateAnnotation, func(d *domain.Diagram) ([]string, error) {
		items, found, err := replaceEntity(d.Annotations, id, mutator, func(a *domain.TextAnnotation) {
			a.ID, a.Type = id, domain.KindAnnotation
		})
		if err != nil {
			return nil, err
		}
		d.Annotations = items
		return foundIDs(found, id), nil
	})
}

// RemoveAnnotation deletes an annotation. Lines never attach to annotations
// in a valid diagram, but any that do are removed too.
func (s *DiagramStore) RemoveAnnotation(id string) {
	s.removeElements(OpRemoveAnnotation, domain.KindAnnotation, id)
}

// UpdateNode dispatches a generic node edit on the element's kind. The
// mutator receives a deep copy and returns the replacement, which must keep
// the same concrete type. Unlike the typed updates, an unknown id is a silent
// no-op without a history entry.
func (s *DiagramStore) UpdateNode(id string, mutator func(domain.Node) (domain.Node, error)) error {
	node, ok := s.NodeByID(id)
	if !ok {
		return nil
	}
	apply := func(n domain.Node) (domain.Node, error) {
		if mutator == nil {
			return n, nil
		}
		return mutator(n)
	}
	switch node.(type) {
	case domain.Equipment:
		return s.UpdateEquipment(id, func(e *domain.Equipment) error {
			return assignNode(apply, e)
		})
	case domain.Valve:
		return s.UpdateValve(id, func(v *domain.Valve) error {
			return assignNode(apply, v)
		})
	case domain.Instrument:
		return s.UpdateInstrument(id, func(i *domain.Instrument) error {
			return assignNode(apply, i)
		})
	case domain.TextAnnotation:
		return s.UpdateAnnotation(id, func(a *domain.TextAnnotation) error {
			return assignNode(apply, a)
		})
	default:
		return nil
	}
}

func assignNode[T domain.Node](apply func(domain.Node) (domain.Node, error), target *T) error {
	out, err := apply(*target)
	if err != nil {
		return err
	}
	typed, ok := out.(T)
	if !ok {
		return fmt.Errorf("node %s: replacement has kind %s", (*target).ElementID(), kindOf(out))
	}
	*target = typed
	return nil
}

func kindOf(n domain.Node) domain.Kind {
	if n == nil {
		return ""
	}
	return n.Kind()
}

// MoveElement sets a node's position, as reported by the rendering surface.
// Unknown ids and lines are ignored.
func (s *DiagramStore) MoveElement(id string, pos domain.Position) error {
	return s.UpdateNode(id, func(n domain.Node) (domain.Node, error) {
		switch e := n.(type) {
		case domain.Equipment:
			e.Position = pos
			return e, nil
		case domain.Valve:
			e.Position = pos
			return e, nil
		case domain.Instrument:
			e.Position = pos
			return e, nil
		case domain.TextAnnotation:
			e.Position = pos
			return e, nil
		default:
			return n, nil
		}
	})
}

// Connect appends a new line between two endpoints. The store trusts the
// caller to supply resolvable endpoints.
func (s *DiagramStore) Connect(source, target domain.Endpoint, lineType domain.LineType) (domain.ProcessLine, error) {
	line := domain.NewLine(domain.LineSpec{Source: source, Target: target, LineType: lineType})
	return s.addLine(OpConnect, line)
}

// DeleteSelected removes every selected element and line, plus any line
// attached to a removed element, as a single history entry. An empty
// selection is a no-op.
func (s *DiagramStore) DeleteSelected() {
	s.mu.RLock()
	drop := idSet(s.selection...)
	s.mu.RUnlock()
	if len(drop) == 0 {
		return
	}
	_ = s.edit(OpDeleteSelected, func(d *domain.Diagram) ([]string, error) {
		var removed, r []string
		d.Equipment, r = removeEntities(d.Equipment, drop)
		removed = append(removed, r...)
		d.Valves, r = removeEntities(d.Valves, drop)
		removed = append(removed, r...)
		d.Instruments, r = removeEntities(d.Instruments, drop)
		removed = append(removed, r...)
		d.Annotations, r = removeEntities(d.Annotations, drop)
		removed = append(removed, r...)
		d.Lines, r = cascadeLines(d.Lines, drop)
		removed = append(removed, r...)
		return removed, nil
	})
}

// removeElements deletes id from the collection of the given kind and, for
// nodes, every line attached to it. A missing id is a no-op without history.
func (s *DiagramStore) removeElements(op Op, kind domain.Kind, id string) {
	drop := idSet(id)
	_ = s.edit(op, func(d *domain.Diagram) ([]string, error) {
		var removed []string
		switch kind {
		case domain.KindEquipment:
			d.Equipment, removed = removeEntities(d.Equipment, drop)
		case domain.KindValve:
			d.Valves, removed = removeEntities(d.Valves, drop)
		case domain.KindInstrument:
			d.Instruments, removed = removeEntities(d.Instruments, drop)
		case domain.KindAnnotation:
			d.Annotations, removed = removeEntities(d.Annotations, drop)
		case domain.KindLine:
			d.Lines, removed = removeEntities(d.Lines, drop)
		}
		if len(removed) == 0 {
			return nil, errNoChange
		}
		if kind != domain.KindLine {
			var lines []string
			d.Lines, lines = cascadeLines(d.Lines, drop)
			removed = append(removed, lines...)
		}
		return removed, nil
	})
}

func foundIDs(found bool, id string) []string {
	if !found {
		return nil
	}
	return []string{id}
}
