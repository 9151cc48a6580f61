// Package validation holds the built-in P&ID rule set and a convenience entry
// point for validating diagram snapshots.
package validation

import (
	"context"

	"pidcore/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with every built-in rule in
// reporting order.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(DuplicateTagRule())
	engine.Register(OrphanLineRule())
	engine.Register(DisconnectedEquipmentRule())
	engine.Register(MissingTagRule())
	engine.Register(DuplicateIDRule())
	engine.Register(UnknownConnectionPointRule())
	engine.Register(MissingAttributeRule())
	engine.Register(SpecBreakRule())
	engine.Register(ControlLoopRule())
	engine.Register(ConnectionDirectionRule())
	return engine
}

// Validate checks d with the default rule set. The built-in rules never fail,
// so the only error is context cancellation.
func Validate(ctx context.Context, d domain.Diagram, opts domain.ValidationOptions) (domain.ValidationResult, error) {
	return NewDefaultRulesEngine().Validate(ctx, domain.NewIndex(d), opts)
}
