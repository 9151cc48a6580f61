package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// tagBase is added to a prefix's counter, so the first tag issued is 101.
const tagBase = 100

// ValveTagPrefix is used for every valve category.
const ValveTagPrefix = "XV"

var equipmentTagPrefixes = map[EquipmentCategory]string{
	EquipmentVessel:        "V",
	EquipmentColumn:        "C",
	EquipmentTank:          "TK",
	EquipmentHeatExchanger: "E",
	EquipmentPump:          "P",
	EquipmentCompressor:    "K",
	EquipmentBlower:        "B",
	EquipmentFilter:        "F",
	EquipmentReactor:       "R",
	EquipmentDrum:          "D",
	EquipmentOther:         "X",
}

// EquipmentTagPrefix returns the tag letter code for an equipment category.
func EquipmentTagPrefix(category EquipmentCategory) string {
	if p, ok := equipmentTagPrefixes[category]; ok {
		return p
	}
	return "X"
}

// TagSequence issues sequential engineering tags ("P-101", "XV-102") per
// prefix. It is owned by a single editing session; the zero value is ready to use.
type TagSequence struct {
	counters map[string]int
}

// Next returns the next tag for prefix.
func (s *TagSequence) Next(prefix string) string {
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	s.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, tagBase+s.counters[prefix])
}

// NextEquipment returns the next tag for an equipment category.
func (s *TagSequence) NextEquipment(category EquipmentCategory) string {
	return s.Next(EquipmentTagPrefix(category))
}

// NextValve returns the next valve tag.
func (s *TagSequence) NextValve() string {
	return s.Next(ValveTagPrefix)
}

// NextInstrument returns the next tag for an instrument designation such as "FIC".
func (s *TagSequence) NextInstrument(attrs InstrumentAttributes) string {
	return s.Next(attrs.Designation())
}

// Observe advances the prefix counter past an existing tag of the form
// PREFIX-NNN so that later tags do not repeat it. Other shapes are ignored.
func (s *TagSequence) Observe(tag string) {
	i := strings.LastIndexByte(tag, '-')
	if i <= 0 || i == len(tag)-1 {
		return
	}
	n, err := strconv.Atoi(tag[i+1:])
	if err != nil || n <= tagBase {
		return
	}
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	prefix := tag[:i]
	if n-tagBase > s.counters[prefix] {
		s.counters[prefix] = n - tagBase
	}
}

// ObserveDiagram seeds the counters from every tag in d.
func (s *TagSequence) ObserveDiagram(d Diagram) {
	for _, n := range d.Nodes() {
		if tag := n.Common().Tag; tag != "" {
			s.Observe(tag)
		}
	}
}

// Reset forgets every counter.
func (s *TagSequence) Reset() {
	s.counters = nil
}
