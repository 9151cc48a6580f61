package domain

// RuleView provides read-only access to a diagram snapshot for rule evaluation.
type RuleView interface {
	Equipment() []Equipment
	Valves() []Valve
	Instruments() []Instrument
	Lines() []ProcessLine
	Annotations() []TextAnnotation
	Lookup(id string) (Element, bool)
	Connectable(id string) (Element, bool)
}

// Index resolves element ids to elements in constant time. When ids collide
// the first occurrence in Elements order wins.
type Index struct {
	diagram Diagram
	byID    map[string]Element
	lines   map[string][]string
}

// NewIndex builds an index over d. The index reads d's slices and must not
// outlive modifications to them.
func NewIndex(d Diagram) *Index {
	idx := &Index{
		diagram: d,
		byID:    make(map[string]Element, d.Len()),
		lines:   make(map[string][]string),
	}
	for _, el := range d.Elements() {
		if _, exists := idx.byID[el.ElementID()]; !exists {
			idx.byID[el.ElementID()] = el
		}
	}
	for _, l := range d.Lines {
		idx.lines[l.Source.ElementID] = append(idx.lines[l.Source.ElementID], l.ID)
		if l.Target.ElementID != l.Source.ElementID {
			idx.lines[l.Target.ElementID] = append(idx.lines[l.Target.ElementID], l.ID)
		}
	}
	return idx
}

// Diagram returns the indexed snapshot.
func (x *Index) Diagram() Diagram { return x.diagram }

func (x *Index) Equipment() []Equipment        { return x.diagram.Equipment }
func (x *Index) Valves() []Valve               { return x.diagram.Valves }
func (x *Index) Instruments() []Instrument     { return x.diagram.Instruments }
func (x *Index) Lines() []ProcessLine          { return x.diagram.Lines }
func (x *Index) Annotations() []TextAnnotation { return x.diagram.Annotations }

// Lookup resolves any element or line by id.
func (x *Index) Lookup(id string) (Element, bool) {
	el, ok := x.byID[id]
	return el, ok
}

// Connectable resolves id only when it names equipment, a valve or an instrument.
func (x *Index) Connectable(id string) (Element, bool) {
	el, ok := x.byID[id]
	if !ok || !el.Kind().Connectable() {
		return nil, false
	}
	return el, true
}

// Contains reports whether any element or line has the id.
func (x *Index) Contains(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// LinesAttachedTo returns the ids of lines with either end on elementID, in
// line order.
func (x *Index) LinesAttachedTo(elementID string) []string {
	return append([]string(nil), x.lines[elementID]...)
}
