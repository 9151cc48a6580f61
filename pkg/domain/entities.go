// Package domain defines the P&ID entity model, the diagram aggregate, and the
// rule evaluation primitives used by pidcore.
package domain

// Kind is the type discriminant carried by every diagram element.
type Kind string

// Element kinds. Lines are elements but not nodes.
const (
	// KindEquipment identifies vessels, pumps, exchangers and other major equipment.
	KindEquipment Kind = "equipment"
	// KindValve identifies an inline piping valve.
	KindValve Kind = "valve"
	// KindInstrument identifies a field or inline instrument.
	KindInstrument Kind = "instrument"
	// KindLine identifies a process, utility or signal line.
	KindLine       Kind = "line"
	KindAnnotation Kind = "annotation"
)

// Connectable reports whether lines may terminate on elements of this kind.
func (k Kind) Connectable() bool {
	switch k {
	case KindEquipment, KindValve, KindInstrument:
		return true
	default:
		return false
	}
}

// Position is a 2D canvas coordinate. For connection points it is relative to
// the owning element's bounding box, normalised to 0..1.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dimensions is an element's bounding box size.
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Base contains the fields shared by every element.
type Base struct {
	ID          string         `json:"id" yaml:"id"`
	Tag         string         `json:"tag,omitempty" yaml:"tag,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Position    Position       `json:"position" yaml:"position"`
	Rotation    float64        `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// EquipmentCategory enumerates the equipment families.
type EquipmentCategory string

// Supported equipment categories.
const (
	EquipmentVessel        EquipmentCategory = "vessel"
	EquipmentColumn        EquipmentCategory = "column"
	EquipmentTank          EquipmentCategory = "tank"
	EquipmentHeatExchanger EquipmentCategory = "heat_exchanger"
	EquipmentPump          EquipmentCategory = "pump"
	EquipmentCompressor    EquipmentCategory = "compressor"
	EquipmentBlower        EquipmentCategory = "blower"
	EquipmentFilter        EquipmentCategory = "filter"
	EquipmentReactor       EquipmentCategory = "reactor"
	EquipmentDrum          EquipmentCategory = "drum"
	EquipmentOther         EquipmentCategory = "other"
)

// NozzleType classifies an equipment connection point.
type NozzleType string

// Supported nozzle types.
const (
	NozzleInlet         NozzleType = "inlet"
	NozzleOutlet        NozzleType = "outlet"
	NozzleBidirectional NozzleType = "bidirectional"
	NozzleUtility       NozzleType = "utility"
	NozzleVent          NozzleType = "vent"
	NozzleDrain         NozzleType = "drain"
)

// ValveCategory enumerates valve bodies.
type ValveCategory string

// Supported valve categories.
const (
	ValveGate      ValveCategory = "gate"
	ValveGlobe     ValveCategory = "globe"
	ValveBall      ValveCategory = "ball"
	ValveButterfly ValveCategory = "butterfly"
	ValveCheck     ValveCategory = "check"
	ValvePlug      ValveCategory = "plug"
	ValveNeedle    ValveCategory = "needle"
	ValveRelief    ValveCategory = "relief"
	ValveControl   ValveCategory = "control"
	ValveThreeWay  ValveCategory = "three_way"
	ValveOther     ValveCategory = "other"
)

// ActuatorType enumerates valve actuation methods.
type ActuatorType string

// Supported actuator types.
const (
	ActuatorManual     ActuatorType = "manual"
	ActuatorPneumatic  ActuatorType = "pneumatic"
	ActuatorElectric   ActuatorType = "electric"
	ActuatorHydraulic  ActuatorType = "hydraulic"
	ActuatorSelfActing ActuatorType = "self_acting"
)

// InstrumentFunction is the first letter of an ISA functional designation.
type InstrumentFunction string

// Measured or initiating variables.
const (
	FunctionFlow        InstrumentFunction = "F"
	FunctionLevel       InstrumentFunction = "L"
	FunctionPressure    InstrumentFunction = "P"
	FunctionTemperature InstrumentFunction = "T"
	FunctionAnalysis    InstrumentFunction = "A"
	FunctionSpeed       InstrumentFunction = "S"
	FunctionWeight      InstrumentFunction = "W"
	FunctionHand        InstrumentFunction = "H"
	FunctionPosition    InstrumentFunction = "Z"
	FunctionVibration   InstrumentFunction = "V"
	FunctionOther       InstrumentFunction = "X"
)

// InstrumentType is a succeeding letter of an ISA functional designation.
type InstrumentType string

// Readout and output functions.
const (
	TypeIndicator   InstrumentType = "I"
	TypeRecorder    InstrumentType = "R"
	TypeController  InstrumentType = "C"
	TypeTransmitter InstrumentType = "T"
	TypeElement     InstrumentType = "E"
	TypeSwitch      InstrumentType = "S"
	TypeAlarm       InstrumentType = "A"
	TypeValve       InstrumentType = "V"
	TypeRelay       InstrumentType = "Y"
	TypeDriver      InstrumentType = "Z"
)

// InstrumentLocation describes where an instrument is mounted or accessed.
type InstrumentLocation string

// Supported instrument locations.
const (
	LocationField       InstrumentLocation = "field"
	LocationLocalPanel  InstrumentLocation = "local_panel"
	LocationControlRoom InstrumentLocation = "control_room"
	LocationDCS         InstrumentLocation = "dcs"
	LocationPLC         InstrumentLocation = "plc"
)

// LineType drives rendering style and LOD filtering of lines.
type LineType string

// Supported line types.
const (
	LineProcess    LineType = "process"
	LineUtility    LineType = "utility"
	LineSignal     LineType = "signal"
	LineElectrical LineType = "electrical"
	LinePneumatic  LineType = "pneumatic"
	LineHydraulic  LineType = "hydraulic"
)

// Well-known attribute keys. Attribute maps are open; these are the keys the
// property panel and validation know about.
const (
	AttrDesignPressure       = "designPressure"
	AttrDesignTemperature    = "designTemperature"
	AttrOperatingPressure    = "operatingPressure"
	AttrOperatingTemperature = "operatingTemperature"
	AttrMaterial             = "material"
	AttrCapacity             = "capacity"
	AttrDriver               = "driver"
	AttrPower                = "power"
	AttrSize                 = "size"
	AttrRating               = "rating"
	AttrActuator             = "actuator"
	AttrFailPosition         = "failPosition"
	AttrNormalPosition       = "normalPosition"
	AttrLineNumber           = "lineNumber"
	AttrSchedule             = "schedule"
	AttrInsulation           = "insulation"
	AttrTracing              = "tracing"
	AttrFluid                = "fluid"
)

// Attributes is an open engineering attribute map.
type Attributes map[string]any

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(key string) string {
	if a == nil {
		return ""
	}
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Has reports whether the key is present with a non-nil value.
func (a Attributes) Has(key string) bool {
	if a == nil {
		return false
	}
	v, ok := a[key]
	return ok && v != nil
}

// With returns a copy of the map with key set to value. The receiver is not modified.
func (a Attributes) With(key string, value any) Attributes {
	out := a.Clone()
	if out == nil {
		out = Attributes{}
	}
	out[key] = value
	return out
}

// Clone copies the map, recursively copying nested maps and slices.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return Attributes(cloneAnyMap(a))
}
