package validation

import (
	"context"
	"fmt"

	"pidcore/pkg/domain"
)

// DuplicateTagRule reports every tag shared by two or more equipment, valve or
// instrument elements. Untagged elements are exempt.
func DuplicateTagRule() domain.Rule {
	return duplicateTagRule{}
}

type duplicateTagRule struct{}

type taggedRef struct {
	ID   string      `json:"id"`
	Kind domain.Kind `json:"type"`
}

func (duplicateTagRule) Name() domain.RuleType { return domain.RuleDuplicateTag }

func (duplicateTagRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}

	var order []string
	groups := make(map[string][]taggedRef)
	collect := func(id, tag string, kind domain.Kind) {
		if tag == "" {
			return
		}
		if _, seen := groups[tag]; !seen {
			order = append(order, tag)
		}
		groups[tag] = append(groups[tag], taggedRef{ID: id, Kind: kind})
	}
	for _, e := range view.Equipment() {
		collect(e.ID, e.Tag, domain.KindEquipment)
	}
	for _, v := range view.Valves() {
		collect(v.ID, v.Tag, domain.KindValve)
	}
	for _, i := range view.Instruments() {
		collect(i.ID, i.Tag, domain.KindInstrument)
	}

	for _, tag := range order {
		refs := groups[tag]
		if len(refs) < 2 {
			continue
		}
		ids := make([]string, len(refs))
		for i, r := range refs {
			ids[i] = r.ID
		}
		res.Issues = append(res.Issues, domain.Issue{
			ID:         "dup-tag-" + tag,
			Rule:       domain.RuleDuplicateTag,
			Severity:   domain.SeverityError,
			Message:    fmt.Sprintf("Duplicate tag %q found on %d elements", tag, len(refs)),
			ElementIDs: ids,
			Details:    map[string]any{"tag": tag, "elements": refs},
		})
	}
	return res, nil
}
