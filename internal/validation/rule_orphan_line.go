package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// OrphanLineRule reports each line end whose element id does not resolve to
// equipment, a valve or an instrument. A line broken at both ends yields two
// issues.
func OrphanLineRule() domain.Rule {
	return orphanLineRule{}
}

type orphanLineRule struct{}

func (orphanLineRule) Name() domain.RuleType { return domain.RuleOrphanLine }

func (orphanLineRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, line := range view.Lines() {
		for _, end := range []struct {
			name string
			ep   domain.Endpoint
		}{{"source", line.Source}, {"target", line.Target}} {
			if _, ok := view.Connectable(end.ep.ElementID); ok {
				continue
			}
			res.Issues = append(res.Issues, domain.Issue{
				ID:         fmt.Sprintf("orphan-%s-%s", end.name, line.ID),
				Rule:       domain.RuleOrphanLine,
				Severity:   domain.SeverityError,
				Message:    fmt.Sprintf("Line %q references non-existent %s element", line.Label(), end.name),
				ElementIDs: []string{line.ID},
				Details: map[string]any{
					"lineId":           line.ID,
					"missingElementId": end.ep.ElementID,
					"end":              end.name,
				},
			})
		}
	}
	return res, nil
}
