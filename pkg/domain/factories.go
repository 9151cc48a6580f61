package domain

import "github.com/google/uuid"

// Default element sizes.
var (
	DefaultEquipmentDimensions  = Dimensions{Width: 80, Height: 120}
	DefaultValveDimensions      = Dimensions{Width: 40, Height: 40}
	DefaultInstrumentDimensions = Dimensions{Width: 40, Height: 40}
)

// NewID returns a fresh element or diagram identifier.
func NewID() string {
	return uuid.NewString()
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return NewID()
}

func dimensionsOr(d Dimensions, def Dimensions) Dimensions {
	if d.Width == 0 && d.Height == 0 {
		return def
	}
	return d
}

// EquipmentSpec is the partial input to NewEquipment. Only Category is
// meaningful to set; every other field has a default.
type EquipmentSpec struct {
	ID          string
	Tag         string
	Description string
	Position    Position
	Rotation    float64
	Category    EquipmentCategory
	Subtype     string
	Dimensions  Dimensions
	Nozzles     []Nozzle
	Attributes  Attributes
}

// NewEquipment builds a fully populated Equipment.
func NewEquipment(spec EquipmentSpec) Equipment {
	category := spec.Category
	if category == "" {
		category = EquipmentOther
	}
	nozzles := append([]Nozzle{}, spec.Nozzles...)
	attrs := spec.Attributes.Clone()
	if attrs == nil {
		attrs = Attributes{}
	}
	return Equipment{
		Base: Base{
			ID:          idOrNew(spec.ID),
			Tag:         spec.Tag,
			Description: spec.Description,
			Position:    spec.Position,
			Rotation:    spec.Rotation,
		},
		Type:       KindEquipment,
		Category:   category,
		Subtype:    spec.Subtype,
		Dimensions: dimensionsOr(spec.Dimensions, DefaultEquipmentDimensions),
		Nozzles:    nozzles,
		Attributes: attrs,
	}
}

// DefaultNozzles returns the nozzle layout placed on new equipment: one inlet
// and two outlets. The layout is currently the same for every category.
func DefaultNozzles(EquipmentCategory) []Nozzle {
	return []Nozzle{
		{ID: "n1", Name: "N1", Type: NozzleInlet, RelativePosition: Position{X: 0, Y: 0.3}},
		{ID: "n2", Name: "N2", Type: NozzleOutlet, RelativePosition: Position{X: 0, Y: 0.7}},
		{ID: "n3", Name: "N3", Type: NozzleOutlet, RelativePosition: Position{X: 0.5, Y: 1}},
	}
}

// ValveSpec is the partial input to NewValve.
type ValveSpec struct {
	ID               string
	Tag              string
	Description      string
	Position         Position
	Rotation         float64
	Category         ValveCategory
	Dimensions       Dimensions
	Attributes       Attributes
	ConnectionPoints *ValveConnectionPoints
}

// DefaultValveConnectionPoints returns inlet on the left, outlet on the right
// and, for three-way bodies, a branch on top.
func DefaultValveConnectionPoints(category ValveCategory) ValveConnectionPoints {
	cp := ValveConnectionPoints{
		Inlet:  Position{X: 0, Y: 0.5},
		Outlet: Position{X: 1, Y: 0.5},
	}
	if category == ValveThreeWay {
		cp.Branch = &Position{X: 0.5, Y: 0}
	}
	return cp
}

// NewValve builds a fully populated Valve.
func NewValve(spec ValveSpec) Valve {
	category := spec.Category
	if category == "" {
		category = ValveOther
	}
	cp := DefaultValveConnectionPoints(category)
	if spec.ConnectionPoints != nil {
		cp = *spec.ConnectionPoints
		cp.Branch = clonePosition(cp.Branch)
	}
	attrs := spec.Attributes.Clone()
	if attrs == nil {
		attrs = Attributes{}
	}
	return Valve{
		Base: Base{
			ID:          idOrNew(spec.ID),
			Tag:         spec.Tag,
			Description: spec.Description,
			Position:    spec.Position,
			Rotation:    spec.Rotation,
		},
		Type:             KindValve,
		Category:         category,
		Dimensions:       dimensionsOr(spec.Dimensions, DefaultValveDimensions),
		Attributes:       attrs,
		ConnectionPoints: cp,
	}
}

// InstrumentSpec is the partial input to NewInstrument. Attributes.Function,
// Attributes.Types and Attributes.Location are the required fields; an empty
// location defaults to field.
type InstrumentSpec struct {
	ID               string
	Tag              string
	Description      string
	Position         Position
	Rotation         float64
	Attributes       InstrumentAttributes
	Dimensions       Dimensions
	IsInline         bool
	ConnectionPoints *InstrumentConnectionPoints
}

// DefaultInstrumentConnectionPoints returns process in/out ports for inline
// instruments and a process tap plus signal port for standalone ones.
func DefaultInstrumentConnectionPoints(inline bool) InstrumentConnectionPoints {
	if inline {
		return InstrumentConnectionPoints{
			ProcessIn:  &Position{X: 0, Y: 0.5},
			ProcessOut: &Position{X: 1, Y: 0.5},
		}
	}
	return InstrumentConnectionPoints{
		Process: &Position{X: 0.5, Y: 1},
		Signal:  &Position{X: 0.5, Y: 0},
	}
}

// NewInstrument builds a fully populated Instrument.
func NewInstrument(spec InstrumentSpec) Instrument {
	attrs := spec.Attributes
	if attrs.Function == "" {
		attrs.Function = FunctionOther
	}
	if attrs.Location == "" {
		attrs.Location = LocationField
	}
	attrs.Types = append([]InstrumentType{}, attrs.Types...)
	attrs.Extra = attrs.Extra.Clone()
	cp := DefaultInstrumentConnectionPoints(spec.IsInline)
	if spec.ConnectionPoints != nil {
		src := *spec.ConnectionPoints
		cp = InstrumentConnectionPoints{
			Process:    clonePosition(src.Process),
			Signal:     clonePosition(src.Signal),
			ProcessIn:  clonePosition(src.ProcessIn),
			ProcessOut: clonePosition(src.ProcessOut),
		}
	}
	return Instrument{
		Base: Base{
			ID:          idOrNew(spec.ID),
			Tag:         spec.Tag,
			Description: spec.Description,
			Position:    spec.Position,
			Rotation:    spec.Rotation,
		},
		Type:             KindInstrument,
		Attributes:       attrs,
		Dimensions:       dimensionsOr(spec.Dimensions, DefaultInstrumentDimensions),
		IsInline:         spec.IsInline,
		ConnectionPoints: cp,
	}
}

// LineSpec is the partial input to NewLine. Source and Target are required.
type LineSpec struct {
	ID          string
	Tag         string
	Description string
	LineType    LineType
	Attributes  Attributes
	Source      Endpoint
	Target      Endpoint
	Waypoints   []Position
}

// NewLine builds a fully populated ProcessLine. Lines carry a zero position.
func NewLine(spec LineSpec) ProcessLine {
	lineType := spec.LineType
	if lineType == "" {
		lineType = LineProcess
	}
	attrs := spec.Attributes.Clone()
	if attrs == nil {
		attrs = Attributes{}
	}
	var waypoints []Position
	if len(spec.Waypoints) > 0 {
		waypoints = append(waypoints, spec.Waypoints...)
	}
	return ProcessLine{
		Base: Base{
			ID:          idOrNew(spec.ID),
			Tag:         spec.Tag,
			Description: spec.Description,
		},
		Type:       KindLine,
		LineType:   lineType,
		Attributes: attrs,
		Source:     spec.Source,
		Target:     spec.Target,
		Waypoints:  waypoints,
	}
}

// AnnotationSpec is the partial input to NewAnnotation.
type AnnotationSpec struct {
	ID         string
	Position   Position
	Rotation   float64
	Text       string
	FontSize   float64
	FontWeight string
	TextAlign  string
}

// NewAnnotation builds a TextAnnotation.
func NewAnnotation(spec AnnotationSpec) TextAnnotation {
	return TextAnnotation{
		Base: Base{
			ID:       idOrNew(spec.ID),
			Position: spec.Position,
			Rotation: spec.Rotation,
		},
		Type:       KindAnnotation,
		Text:       spec.Text,
		FontSize:   spec.FontSize,
		FontWeight: spec.FontWeight,
		TextAlign:  spec.TextAlign,
	}
}

// DiagramSpec is the partial input to NewDiagram.
type DiagramSpec struct {
	ID          string
	Metadata    *DiagramMetadata
	Equipment   []Equipment
	Valves      []Valve
	Instruments []Instrument
	Lines       []ProcessLine
	Annotations []TextAnnotation
}

// NewDiagram builds a diagram at the current schema version. Supplied
// collections are deep-copied.
func NewDiagram(spec DiagramSpec) Diagram {
	meta := DiagramMetadata{Title: DefaultTitle}
	if spec.Metadata != nil {
		meta = *spec.Metadata
	}
	d := Diagram{
		ID:          idOrNew(spec.ID),
		Version:     SchemaVersion,
		Metadata:    meta,
		Equipment:   cloneSlice(spec.Equipment, Equipment.Clone),
		Valves:      cloneSlice(spec.Valves, Valve.Clone),
		Instruments: cloneSlice(spec.Instruments, Instrument.Clone),
		Lines:       cloneSlice(spec.Lines, ProcessLine.Clone),
		Annotations: cloneSlice(spec.Annotations, TextAnnotation.Clone),
	}
	d.Normalize()
	return d
}
