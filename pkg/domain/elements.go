package domain

import "strings"

// Element is the closed set of diagram entities: Equipment, Valve, Instrument,
// ProcessLine and TextAnnotation. Consumers switch on the concrete type.
type Element interface {
	ElementID() string
	Kind() Kind
	Common() Base
	isElement()
}

// Node is an Element placed on the canvas as a symbol, i.e. anything but a line.
type Node interface {
	Element
	isNode()
}

// Nozzle is a named connection point on an equipment item.
type Nozzle struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name,omitempty" yaml:"name,omitempty"`
	Type             NozzleType `json:"type" yaml:"type"`
	RelativePosition Position   `json:"relativePosition" yaml:"relativePosition"`
	Size             string     `json:"size,omitempty" yaml:"size,omitempty"`
	Rating           string     `json:"rating,omitempty" yaml:"rating,omitempty"`
	Facing           string     `json:"facing,omitempty" yaml:"facing,omitempty"`
}

// Equipment is a major process item such as a vessel, pump or exchanger.
type Equipment struct {
	Base       `yaml:",inline"`
	Type       Kind              `json:"type" yaml:"type"`
	Category   EquipmentCategory `json:"category" yaml:"category"`
	Subtype    string            `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Dimensions Dimensions        `json:"dimensions" yaml:"dimensions"`
	Nozzles    []Nozzle          `json:"nozzles" yaml:"nozzles"`
	Attributes Attributes        `json:"attributes" yaml:"attributes"`
}

// Nozzle returns the nozzle with the given id.
func (e Equipment) Nozzle(id string) (Nozzle, bool) {
	for _, n := range e.Nozzles {
		if n.ID == id {
			return n, true
		}
	}
	return Nozzle{}, false
}

// Valve connection point identifiers.
const (
	PointInlet  = "inlet"
	PointOutlet = "outlet"
	PointBranch = "branch"
)

// ValveConnectionPoints holds the relative positions of a valve's ports.
type ValveConnectionPoints struct {
	Inlet  Position  `json:"inlet" yaml:"inlet"`
	Outlet Position  `json:"outlet" yaml:"outlet"`
	Branch *Position `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// Valve is an inline piping valve with two ports, or three for three-way bodies.
type Valve struct {
	Base             `yaml:",inline"`
	Type             Kind                  `json:"type" yaml:"type"`
	Category         ValveCategory         `json:"category" yaml:"category"`
	Dimensions       Dimensions            `json:"dimensions" yaml:"dimensions"`
	Attributes       Attributes            `json:"attributes" yaml:"attributes"`
	ConnectionPoints ValveConnectionPoints `json:"connectionPoints" yaml:"connectionPoints"`
}

// Actuator returns the actuator attribute.
func (v Valve) Actuator() ActuatorType {
	return ActuatorType(v.Attributes.String(AttrActuator))
}

// PointIDs lists the valve's connection point ids.
func (v Valve) PointIDs() []string {
	ids := []string{PointInlet, PointOutlet}
	if v.ConnectionPoints.Branch != nil {
		ids = append(ids, PointBranch)
	}
	return ids
}

// Instrument connection point identifiers.
const (
	PointProcess    = "process"
	PointSignal     = "signal"
	PointProcessIn  = "process_in"
	PointProcessOut = "process_out"
)

// InstrumentAttributes carries the ISA designation and loop data. Keys a
// document adds beside the known ones are kept in Extra and written back at
// the same level.
type InstrumentAttributes struct {
	Function   InstrumentFunction `json:"function" yaml:"function"`
	Types      []InstrumentType   `json:"types" yaml:"types"`
	Location   InstrumentLocation `json:"location" yaml:"location"`
	LoopNumber string             `json:"loopNumber,omitempty" yaml:"loopNumber,omitempty"`
	Range      string             `json:"range,omitempty" yaml:"range,omitempty"`
	Setpoint   string             `json:"setpoint,omitempty" yaml:"setpoint,omitempty"`
	AlarmHigh  string             `json:"alarmHigh,omitempty" yaml:"alarmHigh,omitempty"`
	AlarmLow   string             `json:"alarmLow,omitempty" yaml:"alarmLow,omitempty"`
	SignalType string             `json:"signalType,omitempty" yaml:"signalType,omitempty"`
	Extra      Attributes         `json:"-" yaml:",inline"`
}

// Designation concatenates the function and type letters, e.g. F + [I C] = "FIC".
func (a InstrumentAttributes) Designation() string {
	var b strings.Builder
	b.WriteString(string(a.Function))
	for _, t := range a.Types {
		b.WriteString(string(t))
	}
	return b.String()
}

// InstrumentConnectionPoints holds the relative positions of an instrument's
// ports. Inline instruments use ProcessIn/ProcessOut; standalone ones use
// Process/Signal.
type InstrumentConnectionPoints struct {
	Process    *Position `json:"process,omitempty" yaml:"process,omitempty"`
	Signal     *Position `json:"signal,omitempty" yaml:"signal,omitempty"`
	ProcessIn  *Position `json:"processIn,omitempty" yaml:"processIn,omitempty"`
	ProcessOut *Position `json:"processOut,omitempty" yaml:"processOut,omitempty"`
}

// Instrument is a measuring or control device.
type Instrument struct {
	Base             `yaml:",inline"`
	Type             Kind                       `json:"type" yaml:"type"`
	Attributes       InstrumentAttributes       `json:"attributes" yaml:"attributes"`
	Dimensions       Dimensions                 `json:"dimensions" yaml:"dimensions"`
	IsInline         bool                       `json:"isInline" yaml:"isInline"`
	ConnectionPoints InstrumentConnectionPoints `json:"connectionPoints" yaml:"connectionPoints"`
}

// PointIDs lists the instrument's defined connection point ids.
func (i Instrument) PointIDs() []string {
	var ids []string
	cp := i.ConnectionPoints
	if cp.Process != nil {
		ids = append(ids, PointProcess)
	}
	if cp.Signal != nil {
		ids = append(ids, PointSignal)
	}
	if cp.ProcessIn != nil {
		ids = append(ids, PointProcessIn)
	}
	if cp.ProcessOut != nil {
		ids = append(ids, PointProcessOut)
	}
	return ids
}

// Endpoint is a weak reference to one end of a line: the owning element's id
// plus a nozzle id (equipment) or a named connection point (valve, instrument).
// It is resolved by lookup and may dangle.
type Endpoint struct {
	ElementID       string `json:"elementId" yaml:"elementId"`
	NozzleID        string `json:"nozzleId,omitempty" yaml:"nozzleId,omitempty"`
	ConnectionPoint string `json:"connectionPoint,omitempty" yaml:"connectionPoint,omitempty"`
}

// PointID returns the nozzle id when set, otherwise the connection point name.
func (e Endpoint) PointID() string {
	if e.NozzleID != "" {
		return e.NozzleID
	}
	return e.ConnectionPoint
}

// ProcessLine connects two endpoints.
type ProcessLine struct {
	Base       `yaml:",inline"`
	Type       Kind       `json:"type" yaml:"type"`
	LineType   LineType   `json:"lineType" yaml:"lineType"`
	Attributes Attributes `json:"attributes" yaml:"attributes"`
	Source     Endpoint   `json:"source" yaml:"source"`
	Target     Endpoint   `json:"target" yaml:"target"`
	Waypoints  []Position `json:"waypoints,omitempty" yaml:"waypoints,omitempty"`
}

// References reports whether either end of the line points at elementID.
func (l ProcessLine) References(elementID string) bool {
	return l.Source.ElementID == elementID || l.Target.ElementID == elementID
}

// Label is the line number when present, otherwise the id.
func (l ProcessLine) Label() string {
	if n := l.Attributes.String(AttrLineNumber); n != "" {
		return n
	}
	return l.ID
}

// TextAnnotation is free text placed on the drawing.
type TextAnnotation struct {
	Base       `yaml:",inline"`
	Type       Kind    `json:"type" yaml:"type"`
	Text       string  `json:"text" yaml:"text"`
	FontSize   float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
}

func (e Equipment) ElementID() string      { return e.ID }
func (v Valve) ElementID() string          { return v.ID }
func (i Instrument) ElementID() string     { return i.ID }
func (l ProcessLine) ElementID() string    { return l.ID }
func (a TextAnnotation) ElementID() string { return a.ID }

func (Equipment) Kind() Kind      { return KindEquipment }
func (Valve) Kind() Kind          { return KindValve }
func (Instrument) Kind() Kind     { return KindInstrument }
func (ProcessLine) Kind() Kind    { return KindLine }
func (TextAnnotation) Kind() Kind { return KindAnnotation }

func (e Equipment) Common() Base      { return e.Base }
func (v Valve) Common() Base          { return v.Base }
func (i Instrument) Common() Base     { return i.Base }
func (l ProcessLine) Common() Base    { return l.Base }
func (a TextAnnotation) Common() Base { return a.Base }

func (Equipment) isElement()      {}
func (Valve) isElement()          {}
func (Instrument) isElement()     {}
func (ProcessLine) isElement()    {}
func (TextAnnotation) isElement() {}

func (Equipment) isNode()      {}
func (Valve) isNode()          {}
func (Instrument) isNode()     {}
func (TextAnnotation) isNode() {}

// IsEquipment reports whether el is an Equipment.
func IsEquipment(el Element) bool { return el != nil && el.Kind() == KindEquipment }

// IsValve reports whether el is a Valve.
func IsValve(el Element) bool { return el != nil && el.Kind() == KindValve }

// IsInstrument reports whether el is an Instrument.
func IsInstrument(el Element) bool { return el != nil && el.Kind() == KindInstrument }

// IsLine reports whether el is a ProcessLine.
func IsLine(el Element) bool { return el != nil && el.Kind() == KindLine }

// IsAnnotation reports whether el is a TextAnnotation.
func IsAnnotation(el Element) bool { return el != nil && el.Kind() == KindAnnotation }

// HasConnectionPoint reports whether the endpoint's nozzle or connection point
// exists on el. An endpoint naming no point attaches to the element body and
// always matches.
func HasConnectionPoint(el Element, ep Endpoint) bool {
	point := ep.PointID()
	if point == "" {
		return true
	}
	switch e := el.(type) {
	case Equipment:
		_, ok := e.Nozzle(point)
		return ok
	case Valve:
		return containsString(e.PointIDs(), point)
	case Instrument:
		return containsString(e.PointIDs(), point)
	default:
		return false
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
