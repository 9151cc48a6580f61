package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// MissingTagRule warns about untagged equipment and instruments, and about
// untagged valves only when they are control valves.
func MissingTagRule() domain.Rule {
	return missingTagRule{}
}

type missingTagRule struct{}

func (missingTagRule) Name() domain.RuleType { return domain.RuleMissingTag }

func (missingTagRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}

	for _, eq := range view.Equipment() {
		if eq.Tag != "" {
			continue
		}
		res.Issues = append(res.Issues, missingTag(eq.ID,
			fmt.Sprintf("%s is missing a tag number", eq.Category),
			map[string]any{"category": eq.Category}))
	}

	for _, v := range view.Valves() {
		if v.Tag != "" || v.Category != domain.ValveControl {
			continue
		}
		res.Issues = append(res.Issues, missingTag(v.ID,
			"Control valve is missing a tag number",
			map[string]any{"category": v.Category}))
	}

	for _, inst := range view.Instruments() {
		if inst.Tag != "" {
			continue
		}
		res.Issues = append(res.Issues, missingTag(inst.ID,
			"Instrument is missing a tag number",
			map[string]any{"function": inst.Attributes.Function, "types": inst.Attributes.Types}))
	}
	return res, nil
}

func missingTag(id, message string, details map[string]any) domain.Issue {
	return domain.Issue{
		ID:         "missing-tag-" + id,
		Rule:       domain.RuleMissingTag,
		Severity:   domain.SeverityWarning,
		Message:    message,
		ElementIDs: []string{id},
		Details:    details,
	}
}
