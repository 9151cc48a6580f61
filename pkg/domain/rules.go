package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Severity ranks a validation issue.
type Severity string

// Validation severities, most serious first.
const (
	// SeverityError marks the diagram invalid.
	SeverityError Severity = "error"
	// SeverityWarning is reported but leaves the diagram valid.
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank orders severities for filtering: error 3, warning 2, info 1. Unknown
// values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ParseSeverity accepts error, warning or info in any case.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// RuleType names a validation rule.
type RuleType string

// Known rule types.
const (
	RuleDuplicateTag          RuleType = "duplicate_tag"
	RuleOrphanLine            RuleType = "orphan_line"
	RuleDisconnectedEquipment RuleType = "disconnected_equipment"
	RuleMissingTag            RuleType = "missing_tag"
	RuleDuplicateID           RuleType = "duplicate_id"
	RuleUnknownConnection     RuleType = "unknown_connection_point"
	RuleMissingAttribute      RuleType = "missing_attribute"
	RuleSpecBreakMismatch     RuleType = "spec_break_mismatch"
	RuleIncompleteControlLoop RuleType = "incomplete_control_loop"
	RuleInvalidConnection     RuleType = "invalid_connection"
)

// Issue is one validation finding. ID is derived from the rule and the
// implicated elements, so repeated runs over the same diagram produce the
// same ids.
type Issue struct {
	ID         string         `json:"id" yaml:"id"`
	Rule       RuleType       `json:"type" yaml:"type"`
	Severity   Severity       `json:"severity" yaml:"severity"`
	Message    string         `json:"message" yaml:"message"`
	ElementIDs []string       `json:"elementIds" yaml:"elementIds"`
	Details    map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Result aggregates issues produced by one or more rules.
type Result struct {
	Issues []Issue
}

// Merge appends issues from another result.
func (r *Result) Merge(other Result) {
	if len(other.Issues) == 0 {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// Rule is a single independently selectable check over a diagram snapshot.
type Rule interface {
	Name() RuleType
	Evaluate(ctx context.Context, view RuleView) (Result, error)
}

// ValidationOptions selects rules and filters output. The zero value runs
// every registered rule and reports every severity.
type ValidationOptions struct {
	Rules       []RuleType
	MinSeverity Severity
	FailFast    bool
}

// Summary counts reported issues by severity.
type Summary struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Info     int `json:"info" yaml:"info"`
}

// ValidationResult is the outcome of validating a diagram. Valid is true iff
// no error-severity issue survived filtering.
type ValidationResult struct {
	Valid   bool    `json:"valid" yaml:"valid"`
	Issues  []Issue `json:"errors" yaml:"errors"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// ByRule returns the reported issues produced by rule.
func (r ValidationResult) ByRule(rule RuleType) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Rule == rule {
			out = append(out, is)
		}
	}
	return out
}

// RulesEngine runs registered rules in registration order.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine. A rule whose name is already
// registered replaces the earlier one in place.
func (e *RulesEngine) Register(rule Rule) {
	for i, existing := range e.rules {
		if existing.Name() == rule.Name() {
			e.rules[i] = rule
			return
		}
	}
	e.rules = append(e.rules, rule)
}

// RuleNames lists registered rules in evaluation order.
func (e *RulesEngine) RuleNames() []RuleType {
	out := make([]RuleType, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.Name())
	}
	return out
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}

// Validate runs the selected rules, applies severity filtering and fail-fast,
// and summarises the outcome. Rule names in opts that are not registered are
// ignored. The view is never modified.
func (e *RulesEngine) Validate(ctx context.Context, view RuleView, opts ValidationOptions) (ValidationResult, error) {
	minRank := SeverityInfo.Rank()
	if opts.MinSeverity != "" {
		minRank = opts.MinSeverity.Rank()
	}
	issues := []Issue{}
	for _, rule := range e.rules {
		if len(opts.Rules) > 0 && !slices.Contains(opts.Rules, rule.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ValidationResult{}, err
		}
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return ValidationResult{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		for _, is := range res.Issues {
			if is.Severity.Rank() < minRank {
				continue
			}
			issues = append(issues, is)
			if opts.FailFast {
				return summarise(issues), nil
			}
		}
	}
	return summarise(issues), nil
}

func summarise(issues []Issue) ValidationResult {
	var s Summary
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Info++
		}
	}
	return ValidationResult{Valid: s.Errors == 0, Issues: issues, Summary: s}
}
