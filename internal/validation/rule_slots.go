package validation

import (
	"context"

	"pidcore/pkg/domain"
)

// passRule occupies a registry slot for a check that has no executable
// semantics yet. It always passes, so selecting it is harmless.
type passRule struct {
	name domain.RuleType
}

func (r passRule) Name() domain.RuleType { return r.name }

func (passRule) Evaluate(context.Context, domain.RuleView) (domain.Result, error) {
	return domain.Result{}, nil
}

// MissingAttributeRule is the slot for required engineering attribute checks.
func MissingAttributeRule() domain.Rule { return passRule{name: domain.RuleMissingAttribute} }

// SpecBreakRule is the slot for piping spec consistency across line segments.
func SpecBreakRule() domain.Rule { return passRule{name: domain.RuleSpecBreakMismatch} }

// ControlLoopRule is the slot for control loop completeness: every control
// valve paired with a controller or transmitter.
func ControlLoopRule() domain.Rule { return passRule{name: domain.RuleIncompleteControlLoop} }

// ConnectionDirectionRule is the slot for rejecting inlet-to-inlet and
// outlet-to-outlet connections.
func ConnectionDirectionRule() domain.Rule { return passRule{name: domain.RuleInvalidConnection} }
