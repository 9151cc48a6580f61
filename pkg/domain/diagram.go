package domain

// SchemaVersion is the interchange schema version written by this module.
const SchemaVersion = "1.0.0"

// DefaultTitle is assigned to diagrams created without a title.
const DefaultTitle = "Untitled P&ID"

// DiagramMetadata is the drawing title block.
type DiagramMetadata struct {
	Title         string `json:"title" yaml:"title"`
	DrawingNumber string `json:"drawingNumber,omitempty" yaml:"drawingNumber,omitempty"`
	Revision      string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Author        string `json:"author,omitempty" yaml:"author,omitempty"`
	Checker       string `json:"checker,omitempty" yaml:"checker,omitempty"`
	Approver      string `json:"approver,omitempty" yaml:"approver,omitempty"`
	Date          string `json:"date,omitempty" yaml:"date,omitempty"`
	Plant         string `json:"plant,omitempty" yaml:"plant,omitempty"`
	Area          string `json:"area,omitempty" yaml:"area,omitempty"`
	Unit          string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Sheet         string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Scale         string `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Viewport is the persisted pan/zoom state.
type Viewport struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Zoom float64 `json:"zoom" yaml:"zoom"`
}

// Diagram is the aggregate root. Values are treated as immutable snapshots
// once handed out by the store; use Clone before editing.
type Diagram struct {
	ID          string           `json:"id" yaml:"id"`
	Version     string           `json:"version" yaml:"version"`
	Metadata    DiagramMetadata  `json:"metadata" yaml:"metadata"`
	Equipment   []Equipment      `json:"equipment" yaml:"equipment"`
	Valves      []Valve          `json:"valves" yaml:"valves"`
	Instruments []Instrument     `json:"instruments" yaml:"instruments"`
	Lines       []ProcessLine    `json:"lines" yaml:"lines"`
	Annotations []TextAnnotation `json:"annotations" yaml:"annotations"`
	Viewport    *Viewport        `json:"viewport,omitempty" yaml:"viewport,omitempty"`
}

// Nodes returns every non-line element in collection order: equipment,
// valves, instruments, annotations.
func (d Diagram) Nodes() []Node {
	out := make([]Node, 0, len(d.Equipment)+len(d.Valves)+len(d.Instruments)+len(d.Annotations))
	for _, e := range d.Equipment {
		out = append(out, e)
	}
	for _, v := range d.Valves {
		out = append(out, v)
	}
	for _, i := range d.Instruments {
		out = append(out, i)
	}
	for _, a := range d.Annotations {
		out = append(out, a)
	}
	return out
}

// Elements returns every node followed by every line.
func (d Diagram) Elements() []Element {
	nodes := d.Nodes()
	out := make([]Element, 0, len(nodes)+len(d.Lines))
	for _, n := range nodes {
		out = append(out, n)
	}
	for _, l := range d.Lines {
		out = append(out, l)
	}
	return out
}

// Len is the total number of elements and lines.
func (d Diagram) Len() int {
	return len(d.Equipment) + len(d.Valves) + len(d.Instruments) + len(d.Lines) + len(d.Annotations)
}

// Clone returns a deep copy sharing no mutable state with d.
func (d Diagram) Clone() Diagram {
	d.Equipment = cloneSlice(d.Equipment, Equipment.Clone)
	d.Valves = cloneSlice(d.Valves, Valve.Clone)
	d.Instruments = cloneSlice(d.Instruments, Instrument.Clone)
	d.Lines = cloneSlice(d.Lines, ProcessLine.Clone)
	d.Annotations = cloneSlice(d.Annotations, TextAnnotation.Clone)
	if d.Viewport != nil {
		vp := *d.Viewport
		d.Viewport = &vp
	}
	return d
}

// Normalize fills defaults that decoders leave empty: the schema version,
// non-nil collections, and each element's type discriminant.
func (d *Diagram) Normalize() {
	if d.Version == "" {
		d.Version = SchemaVersion
	}
	if d.Equipment == nil {
		d.Equipment = []Equipment{}
	}
	if d.Valves == nil {
		d.Valves = []Valve{}
	}
	if d.Instruments == nil {
		d.Instruments = []Instrument{}
	}
	if d.Lines == nil {
		d.Lines = []ProcessLine{}
	}
	if d.Annotations == nil {
		d.Annotations = []TextAnnotation{}
	}
	for i := range d.Equipment {
		d.Equipment[i].Type = KindEquipment
		if d.Equipment[i].Nozzles == nil {
			d.Equipment[i].Nozzles = []Nozzle{}
		}
	}
	for i := range d.Valves {
		d.Valves[i].Type = KindValve
	}
	for i := range d.Instruments {
		d.Instruments[i].Type = KindInstrument
		if d.Instruments[i].Attributes.Types == nil {
			d.Instruments[i].Attributes.Types = []InstrumentType{}
		}
	}
	for i := range d.Lines {
		d.Lines[i].Type = KindLine
	}
	for i := range d.Annotations {
		d.Annotations[i].Type = KindAnnotation
	}
}
