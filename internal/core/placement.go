package core

import "pidcore/pkg/domain"

// PlaceEquipment drops new equipment of the given category at pos, tagged with
// the next number in the category's sequence and fitted with default nozzles.
func (s *DiagramStore) PlaceEquipment(category domain.EquipmentCategory, pos domain.Position) (domain.Equipment, error) {
	e := domain.NewEquipment(domain.EquipmentSpec{
		Category: category,
		Position: pos,
		Nozzles:  domain.DefaultNozzles(category),
	})
	err := s.edit(OpAddEquipment, func(d *domain.Diagram) ([]string, error) {
		if err := s.checkNewID(e.ID); err != nil {
			return nil, err
		}
		e.Tag = s.tags.NextEquipment(category)
		d.Equipment = appendEntity(d.Equipment, e)
		return []string{e.ID}, nil
	})
	if err != nil {
		return domain.Equipment{}, err
	}
	return e.Clone(), nil
}

// PlaceValve drops a new valve at pos tagged XV-nnn.
func (s *DiagramStore) PlaceValve(category domain.ValveCategory, pos domain.Position) (domain.Valve, error) {
	v := domain.NewValve(domain.ValveSpec{Category: category, Position: pos})
	err := s.edit(OpAddValve, func(d *domain.Diagram) ([]string, error) {
		if err := s.checkNewID(v.ID); err != nil {
			return nil, err
		}
		v.Tag = s.tags.NextValve()
		d.Valves = appendEntity(d.Valves, v)
		return []string{v.ID}, nil
	})
	if err != nil {
		return domain.Valve{}, err
	}
	return v.Clone(), nil
}

// PlaceInstrument drops a new instrument at pos tagged with its functional
// designation, e.g. FIC-101.
func (s *DiagramStore) PlaceInstrument(attrs domain.InstrumentAttributes, inline bool, pos domain.Position) (domain.Instrument, error) {
	i := domain.NewInstrument(domain.InstrumentSpec{Attributes: attrs, IsInline: inline, Position: pos})
	err := s.edit(OpAddInstrument, func(d *domain.Diagram) ([]string, error) {
		if err := s.checkNewID(i.ID); err != nil {
			return nil, err
		}
		i.Tag = s.tags.NextInstrument(i.Attributes)
		d.Instruments = appendEntity(d.Instruments, i)
		return []string{i.ID}, nil
	})
	if err != nil {
		return domain.Instrument{}, err
	}
	return i.Clone(), nil
}
