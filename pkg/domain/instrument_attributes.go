package domain

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var instrumentAttributeKeys = map[string]struct{}{
	"function":   {},
	"types":      {},
	"location":   {},
	"loopNumber": {},
	"range":      {},
	"setpoint":   {},
	"alarmHigh":  {},
	"alarmLow":   {},
	"signalType": {},
}

// MarshalJSON writes the known fields and the Extra keys as one flat object.
func (a InstrumentAttributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.fields())
}

// UnmarshalJSON reads a flat object; unknown keys land in Extra.
func (a *InstrumentAttributes) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	return a.setFields(m)
}

// EncodeMsgpack mirrors MarshalJSON.
func (a InstrumentAttributes) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(a.fields())
}

// DecodeMsgpack mirrors UnmarshalJSON.
func (a *InstrumentAttributes) DecodeMsgpack(dec *msgpack.Decoder) error {
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	return a.setFields(m)
}

func (a InstrumentAttributes) fields() map[string]any {
	m := make(map[string]any, len(a.Extra)+len(instrumentAttributeKeys))
	for k, v := range a.Extra {
		if _, known := instrumentAttributeKeys[k]; !known {
			m[k] = v
		}
	}
	types := make([]string, len(a.Types))
	for i, t := range a.Types {
		types[i] = string(t)
	}
	m["function"] = string(a.Function)
	m["types"] = types
	m["location"] = string(a.Location)
	for key, v := range map[string]string{
		"loopNumber": a.LoopNumber,
		"range":      a.Range,
		"setpoint":   a.Setpoint,
		"alarmHigh":  a.AlarmHigh,
		"alarmLow":   a.AlarmLow,
		"signalType": a.SignalType,
	} {
		if v != "" {
			m[key] = v
		}
	}
	return m
}

func (a *InstrumentAttributes) setFields(m map[string]any) error {
	if m == nil {
		return nil
	}
	var out InstrumentAttributes
	strs := map[string]*string{
		"loopNumber": &out.LoopNumber,
		"range":      &out.Range,
		"setpoint":   &out.Setpoint,
		"alarmHigh":  &out.AlarmHigh,
		"alarmLow":   &out.AlarmLow,
		"signalType": &out.SignalType,
	}
	var function, location string
	strs["function"] = &function
	strs["location"] = &location
	for key, dst := range strs {
		v, err := stringAttribute(m, key)
		if err != nil {
			return err
		}
		*dst = v
	}
	out.Function = InstrumentFunction(function)
	out.Location = InstrumentLocation(location)

	switch raw := m["types"].(type) {
	case nil:
	case []any:
		out.Types = make([]InstrumentType, len(raw))
		for i, v := range raw {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("instrument attribute types[%d]: expected string, got %T", i, v)
			}
			out.Types[i] = InstrumentType(s)
		}
	default:
		return fmt.Errorf("instrument attribute types: expected list, got %T", raw)
	}

	for k, v := range m {
		if _, known := instrumentAttributeKeys[k]; known {
			continue
		}
		if out.Extra == nil {
			out.Extra = Attributes{}
		}
		out.Extra[k] = v
	}
	*a = out
	return nil
}

func stringAttribute(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("instrument attribute %s: expected string, got %T", key, v)
	}
	return s, nil
}
