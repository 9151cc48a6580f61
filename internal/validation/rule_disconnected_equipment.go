package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// DisconnectedEquipmentRule warns about equipment no line touches. Valves and
// instruments are not checked.
func DisconnectedEquipmentRule() domain.Rule {
	return disconnectedEquipmentRule{}
}

type disconnectedEquipmentRule struct{}

func (disconnectedEquipmentRule) Name() domain.RuleType { return domain.RuleDisconnectedEquipment }

func (disconnectedEquipmentRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}

	lines := view.Lines()
	connected := make(map[string]struct{}, 2*len(lines))
	for _, l := range lines {
		connected[l.Source.ElementID] = struct{}{}
		connected[l.Target.ElementID] = struct{}{}
	}

	for _, eq := range view.Equipment() {
		if _, ok := connected[eq.ID]; ok {
			continue
		}
		label := eq.Tag
		if label == "" {
			label = eq.ID
		}
		res.Issues = append(res.Issues, domain.Issue{
			ID:         "disconnected-" + eq.ID,
			Rule:       domain.RuleDisconnectedEquipment,
			Severity:   domain.SeverityWarning,
			Message:    fmt.Sprintf("Equipment %q has no connections", label),
			ElementIDs: []string{eq.ID},
			Details:    map[string]any{"tag": eq.Tag, "category": eq.Category},
		})
	}
	return res, nil
}
