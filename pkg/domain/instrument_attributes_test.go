package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestInstrumentAttributesKeepUnknownKeys(t *testing.T) {
	var a InstrumentAttributes
	doc := `{"function":"F","types":["I","C"],"location":"field","loopNumber":"101","vendor":"Acme","calibration":{"due":"2027-01"}}`
	require.NoError(t, json.Unmarshal([]byte(doc), &a))

	require.Equal(t, FunctionFlow, a.Function)
	require.Equal(t, []InstrumentType{TypeIndicator, TypeController}, a.Types)
	require.Equal(t, LocationField, a.Location)
	require.Equal(t, "101", a.LoopNumber)
	require.Equal(t, Attributes{"vendor": "Acme", "calibration": map[string]any{"due": "2027-01"}}, a.Extra)

	out, err := json.Marshal(a)
	require.NoError(t, err)
	require.JSONEq(t, doc, string(out))
}

func TestInstrumentAttributesKnownKeysWin(t *testing.T) {
	a := InstrumentAttributes{Function: FunctionFlow, Location: LocationField, Extra: Attributes{"function": "X", "tagged": true}}
	out, err := json.Marshal(a)
	require.NoError(t, err)
	require.JSONEq(t, `{"function":"F","types":[],"location":"field","tagged":true}`, string(out))
}

func TestInstrumentAttributesMsgpack(t *testing.T) {
	a := InstrumentAttributes{
		Function: FunctionLevel,
		Types:    []InstrumentType{TypeTransmitter},
		Location: LocationControlRoom,
		Range:    "0-5 m",
		Extra:    Attributes{"vendor": "Acme"},
	}
	raw, err := msgpack.Marshal(a)
	require.NoError(t, err)

	var back InstrumentAttributes
	require.NoError(t, msgpack.Unmarshal(raw, &back))
	require.Equal(t, a, back)
}

func TestInstrumentAttributesRejectsBadShapes(t *testing.T) {
	for _, doc := range []string{
		`{"function":3}`,
		`{"types":"IC"}`,
		`{"types":["I",2]}`,
		`{"setpoint":true}`,
		`[]`,
	} {
		var a InstrumentAttributes
		require.Error(t, json.Unmarshal([]byte(doc), &a), doc)
	}

	a := InstrumentAttributes{Function: FunctionFlow}
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	require.Equal(t, FunctionFlow, a.Function)
}
