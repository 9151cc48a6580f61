package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// DuplicateIDRule reports ids shared by more than one element or line. Ids are
// not scoped by kind, so an equipment and a line with the same id collide.
func DuplicateIDRule() domain.Rule {
	return duplicateIDRule{}
}

type duplicateIDRule struct{}

func (duplicateIDRule) Name() domain.RuleType { return domain.RuleDuplicateID }

func (duplicateIDRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}

	var order []string
	kinds := make(map[string][]domain.Kind)
	add := func(id string, kind domain.Kind) {
		if _, seen := kinds[id]; !seen {
			order = append(order, id)
		}
		kinds[id] = append(kinds[id], kind)
	}
	for _, e := range view.Equipment() {
		add(e.ID, domain.KindEquipment)
	}
	for _, v := range view.Valves() {
		add(v.ID, domain.KindValve)
	}
	for _, i := range view.Instruments() {
		add(i.ID, domain.KindInstrument)
	}
	for _, a := range view.Annotations() {
		add(a.ID, domain.KindAnnotation)
	}
	for _, l := range view.Lines() {
		add(l.ID, domain.KindLine)
	}

	for _, id := range order {
		if len(kinds[id]) < 2 {
			continue
		}
		res.Issues = append(res.Issues, domain.Issue{
			ID:         "dup-id-" + id,
			Rule:       domain.RuleDuplicateID,
			Severity:   domain.SeverityError,
			Message:    fmt.Sprintf("Id %q is used by %d elements", id, len(kinds[id])),
			ElementIDs: []string{id},
			Details:    map[string]any{"kinds": kinds[id]},
		})
	}
	return res, nil
}
