package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDiagram() Diagram {
	tank := NewEquipment(EquipmentSpec{ID: "tk", Tag: "TK-101", Category: EquipmentTank, Nozzles: DefaultNozzles(EquipmentTank)})
	pump := NewEquipment(EquipmentSpec{ID: "p", Tag: "P-101", Category: EquipmentPump, Attributes: Attributes{"curve": map[string]any{"points": []any{1.0, 2.0}}}})
	valve := NewValve(ValveSpec{ID: "v", Category: ValveThreeWay})
	inst := NewInstrument(InstrumentSpec{ID: "i", Tag: "FT-101", Attributes: InstrumentAttributes{Function: FunctionFlow, Types: []InstrumentType{TypeTransmitter}}})
	line := NewLine(LineSpec{
		ID:        "l",
		Source:    Endpoint{ElementID: "tk", NozzleID: "n2"},
		Target:    Endpoint{ElementID: "p"},
		Waypoints: []Position{{X: 1, Y: 2}},
	})
	note := NewAnnotation(AnnotationSpec{ID: "a", Text: "hold"})
	d := NewDiagram(DiagramSpec{
		ID:          "d",
		Equipment:   []Equipment{tank, pump},
		Valves:      []Valve{valve},
		Instruments: []Instrument{inst},
		Lines:       []ProcessLine{line},
		Annotations: []TextAnnotation{note},
	})
	d.Viewport = &Viewport{X: 1, Y: 1, Zoom: 2}
	return d
}

func TestDiagramNodesAndElementsOrder(t *testing.T) {
	d := sampleDiagram()

	var nodeIDs []string
	for _, n := range d.Nodes() {
		nodeIDs = append(nodeIDs, n.ElementID())
	}
	require.Equal(t, []string{"tk", "p", "v", "i", "a"}, nodeIDs)

	els := d.Elements()
	require.Len(t, els, 6)
	require.Equal(t, "l", els[len(els)-1].ElementID())
	require.Equal(t, 6, d.Len())
}

func TestDiagramCloneIsIndependent(t *testing.T) {
	d := sampleDiagram()
	c := d.Clone()
	require.Equal(t, d, c)

	c.Equipment[0].Tag = "changed"
	c.Equipment[0].Nozzles[0].Name = "changed"
	c.Equipment[1].Attributes["curve"].(map[string]any)["points"].([]any)[0] = 9.0
	c.Valves[0].ConnectionPoints.Branch.X = 7
	c.Instruments[0].Attributes.Types[0] = TypeAlarm
	c.Lines[0].Waypoints[0].X = 99
	c.Viewport.Zoom = 5

	require.Equal(t, "TK-101", d.Equipment[0].Tag)
	require.Equal(t, "N1", d.Equipment[0].Nozzles[0].Name)
	require.Equal(t, 1.0, d.Equipment[1].Attributes["curve"].(map[string]any)["points"].([]any)[0])
	require.Equal(t, 0.5, d.Valves[0].ConnectionPoints.Branch.X)
	require.Equal(t, TypeTransmitter, d.Instruments[0].Attributes.Types[0])
	require.Equal(t, 1.0, d.Lines[0].Waypoints[0].X)
	require.Equal(t, 2.0, d.Viewport.Zoom)
}

func TestDiagramCloneKeepsEmptyCollections(t *testing.T) {
	pump := NewEquipment(EquipmentSpec{ID: "p", Tag: "P-101", Category: EquipmentPump})
	sensor := NewInstrument(InstrumentSpec{ID: "i", Tag: "X-101"})
	d := NewDiagram(DiagramSpec{ID: "d", Equipment: []Equipment{pump}, Instruments: []Instrument{sensor}})
	require.NotNil(t, d.Equipment[0].Nozzles)
	require.NotNil(t, d.Instruments[0].Attributes.Types)

	c := d.Clone()
	require.Equal(t, d, c)
	require.NotNil(t, c.Equipment[0].Nozzles)
	require.NotNil(t, c.Instruments[0].Attributes.Types)
	require.NotNil(t, c.Lines)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(out), `"nozzles":[]`)
	require.Contains(t, string(out), `"types":[]`)
}

func TestDiagramNormalize(t *testing.T) {
	d := Diagram{
		Equipment:   []Equipment{{Base: Base{ID: "e"}}},
		Instruments: []Instrument{{Base: Base{ID: "i"}}},
		Lines:       []ProcessLine{{Base: Base{ID: "l"}}},
	}
	d.Normalize()

	require.Equal(t, SchemaVersion, d.Version)
	require.Equal(t, KindEquipment, d.Equipment[0].Type)
	require.NotNil(t, d.Equipment[0].Nozzles)
	require.Equal(t, KindInstrument, d.Instruments[0].Type)
	require.NotNil(t, d.Instruments[0].Attributes.Types)
	require.Equal(t, KindLine, d.Lines[0].Type)
	require.NotNil(t, d.Valves)
	require.NotNil(t, d.Instruments)
	require.NotNil(t, d.Annotations)
}

func TestAttributesHelpers(t *testing.T) {
	var empty Attributes
	require.Equal(t, "", empty.String("x"))
	require.False(t, empty.Has("x"))
	require.Nil(t, empty.Clone())

	a := empty.With("size", "2\"")
	require.Equal(t, "2\"", a.String("size"))
	require.True(t, a.Has("size"))
	require.Nil(t, empty)

	b := a.With("size", 3)
	require.Equal(t, "", b.String("size"))
	require.Equal(t, "2\"", a.String("size"))
}

func TestIndexLookup(t *testing.T) {
	d := sampleDiagram()
	idx := NewIndex(d)

	el, ok := idx.Lookup("v")
	require.True(t, ok)
	require.Equal(t, KindValve, el.Kind())

	_, ok = idx.Connectable("a")
	require.False(t, ok, "annotations are not connectable")
	_, ok = idx.Lookup("a")
	require.True(t, ok)
	_, ok = idx.Connectable("l")
	require.False(t, ok)
	require.True(t, idx.Contains("l"))
	require.False(t, idx.Contains("missing"))

	require.Equal(t, []string{"l"}, idx.LinesAttachedTo("tk"))
	require.Equal(t, []string{"l"}, idx.LinesAttachedTo("p"))
	require.Empty(t, idx.LinesAttachedTo("v"))
}

func TestIndexFirstDuplicateWins(t *testing.T) {
	d := NewDiagram(DiagramSpec{
		Equipment:   []Equipment{NewEquipment(EquipmentSpec{ID: "x", Tag: "first"})},
		Annotations: []TextAnnotation{NewAnnotation(AnnotationSpec{ID: "x"})},
	})
	el, ok := NewIndex(d).Connectable("x")
	require.True(t, ok)
	require.Equal(t, "first", el.Common().Tag)
}

func TestTagSequence(t *testing.T) {
	var seq TagSequence
	require.Equal(t, "P-101", seq.NextEquipment(EquipmentPump))
	require.Equal(t, "P-102", seq.NextEquipment(EquipmentPump))
	require.Equal(t, "TK-101", seq.NextEquipment(EquipmentTank))
	require.Equal(t, "X-101", seq.NextEquipment("unknown"))
	require.Equal(t, "XV-101", seq.NextValve())
	require.Equal(t, "FIC-101", seq.NextInstrument(InstrumentAttributes{Function: FunctionFlow, Types: []InstrumentType{TypeIndicator, TypeController}}))

	seq.Reset()
	require.Equal(t, "P-101", seq.NextEquipment(EquipmentPump))
}

func TestTagSequenceObserve(t *testing.T) {
	var seq TagSequence
	seq.Observe("P-105")
	seq.Observe("P-103")
	seq.Observe("no-number")
	seq.Observe("-7")
	seq.Observe("P-")
	seq.Observe("XV-099")
	require.Equal(t, "P-106", seq.NextEquipment(EquipmentPump))
	require.Equal(t, "XV-101", seq.NextValve())

	var seeded TagSequence
	seeded.ObserveDiagram(sampleDiagram())
	require.Equal(t, "TK-102", seeded.NextEquipment(EquipmentTank))
	require.Equal(t, "FT-102", seeded.Next("FT"))
}
