package domain

import "slices"

// Clone helpers return values that share no mutable state with their source.

func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAnyMap(t)
	case Attributes:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneAny(t[i])
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

func clonePosition(p *Position) *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Clone returns a deep copy of the base fields.
func (b Base) Clone() Base {
	b.Metadata = cloneAnyMap(b.Metadata)
	return b
}

// Clone returns a deep copy of the equipment.
func (e Equipment) Clone() Equipment {
	e.Base = e.Base.Clone()
	e.Nozzles = slices.Clone(e.Nozzles)
	e.Attributes = e.Attributes.Clone()
	return e
}

// Clone returns a deep copy of the valve.
func (v Valve) Clone() Valve {
	v.Base = v.Base.Clone()
	v.Attributes = v.Attributes.Clone()
	v.ConnectionPoints.Branch = clonePosition(v.ConnectionPoints.Branch)
	return v
}

// Clone returns a deep copy of the instrument.
func (i Instrument) Clone() Instrument {
	i.Base = i.Base.Clone()
	i.Attributes.Types = slices.Clone(i.Attributes.Types)
	i.Attributes.Extra = i.Attributes.Extra.Clone()
	cp := &i.ConnectionPoints
	cp.Process = clonePosition(cp.Process)
	cp.Signal = clonePosition(cp.Signal)
	cp.ProcessIn = clonePosition(cp.ProcessIn)
	cp.ProcessOut = clonePosition(cp.ProcessOut)
	return i
}

// Clone returns a deep copy of the line.
func (l ProcessLine) Clone() ProcessLine {
	l.Base = l.Base.Clone()
	l.Attributes = l.Attributes.Clone()
	l.Waypoints = slices.Clone(l.Waypoints)
	return l
}

// Clone returns a deep copy of the annotation.
func (a TextAnnotation) Clone() TextAnnotation {
	a.Base = a.Base.Clone()
	return a
}

// CloneElement deep-copies any element, preserving its concrete type.
func CloneElement(el Element) Element {
	switch e := el.(type) {
	case Equipment:
		return e.Clone()
	case Valve:
		return e.Clone()
	case Instrument:
		return e.Clone()
	case ProcessLine:
		return e.Clone()
	case TextAnnotation:
		return e.Clone()
	default:
		return el
	}
}

func cloneSlice[T any](src []T, clone func(T) T) []T {
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	for i := range src {
		out[i] = clone(src[i])
	}
	return out
}
