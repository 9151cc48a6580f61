package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// UnknownConnectionPointRule warns when a line end resolves to an element but
// names a nozzle or connection point that element does not define. Unresolved
// elements are left to OrphanLineRule.
func UnknownConnectionPointRule() domain.Rule {
	return unknownConnectionRule{}
}

type unknownConnectionRule struct{}

func (unknownConnectionRule) Name() domain.RuleType { return domain.RuleUnknownConnection }

func (unknownConnectionRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, line := range view.Lines() {
		for _, end := range []struct {
			name string
			ep   domain.Endpoint
		}{{"source", line.Source}, {"target", line.Target}} {
			el, ok := view.Connectable(end.ep.ElementID)
			if !ok || domain.HasConnectionPoint(el, end.ep) {
				continue
			}
			res.Issues = append(res.Issues, domain.Issue{
				ID:         fmt.Sprintf("unknown-point-%s-%s", end.name, line.ID),
				Rule:       domain.RuleUnknownConnection,
				Severity:   domain.SeverityWarning,
				Message:    fmt.Sprintf("Line %q %s attaches to undefined point %q on %s", line.Label(), end.name, end.ep.PointID(), end.ep.ElementID),
				ElementIDs: []string{line.ID, end.ep.ElementID},
				Details: map[string]any{
					"lineId": line.ID,
					"end":    end.name,
					"point":  end.ep.PointID(),
				},
			})
		}
	}
	return res, nil
}
