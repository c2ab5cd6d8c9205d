package onboarding

import (
	"fmt"

	"github.com/lodgehr/backend/internal/domain/shared"
)

// Resolver answers ordering questions against the step graph: which
// step a session may enter, which one comes next, and what still
// stands between the session and review.
type Resolver struct {
	registry *StepRegistry
}

// NewResolver creates a resolver over a validated registry
func NewResolver(registry *StepRegistry) *Resolver {
	return &Resolver{registry: registry}
}

// Registry exposes the underlying catalog
func (r *Resolver) Registry() *StepRegistry {
	return r.registry
}

// CanEnter returns nil when every dependency of the step is completed
// and, for conditional steps, the branching predicate holds. A
// dependency failure identifies the missing prerequisite ids so the UI
// can redirect instead of guessing.
func (r *Resolver) CanEnter(stepID StepID, completed []StepID, payloads map[StepID]Payload) error {
	def, ok := r.registry.Get(stepID)
	if !ok {
		return shared.NewDomainError(shared.CodeStepNotFound,
			fmt.Sprintf("Unknown step %q", stepID))
	}

	if !def.Applicable(payloads) {
		return shared.NewDomainError(shared.CodeStepNotAvailable,
			fmt.Sprintf("Step %q does not apply to this session", stepID))
	}

	if missing := r.MissingDependencies(stepID, completed); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = string(id)
		}
		return shared.NewDomainErrorWithDetails(shared.CodeDependencyNotSatisfied,
			fmt.Sprintf("Step %q requires completing %d prerequisite step(s) first", stepID, len(missing)),
			map[string]any{"missing_steps": ids})
	}

	return nil
}

// MissingDependencies returns the dependency ids of the step not yet
// present in the completed set, in declaration order
func (r *Resolver) MissingDependencies(stepID StepID, completed []StepID) []StepID {
	def, ok := r.registry.Get(stepID)
	if !ok {
		return nil
	}
	done := toSet(completed)
	var missing []StepID
	for _, dep := range def.Dependencies {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	return missing
}

// NextStep returns the first enterable, not-yet-completed step in
// registry declaration order, or nil when no further step is open.
// Declaration order makes the choice deterministic when several steps
// are unlocked at once.
func (r *Resolver) NextStep(completed []StepID, payloads map[StepID]Payload) *StepDefinition {
	done := toSet(completed)
	for _, def := range r.registry.All() {
		if done[def.ID] {
			continue
		}
		if !def.Applicable(payloads) {
			continue
		}
		if len(r.MissingDependencies(def.ID, completed)) > 0 {
			continue
		}
		out := def
		return &out
	}
	return nil
}

// OutstandingRequired returns the required, applicable steps the
// session has not completed. A conditional required step whose
// predicate is false is skipped entirely and does not block review.
func (r *Resolver) OutstandingRequired(completed []StepID, payloads map[StepID]Payload) []StepID {
	done := toSet(completed)
	var outstanding []StepID
	for _, def := range r.registry.All() {
		if !def.Required || done[def.ID] {
			continue
		}
		if !def.Applicable(payloads) {
			continue
		}
		outstanding = append(outstanding, def.ID)
	}
	return outstanding
}

// ComplianceSteps returns the completed, applicable compliance-critical
// steps, i.e. the steps whose official documents must exist and be
// signed before final submission.
func (r *Resolver) ComplianceSteps(completed []StepID, payloads map[StepID]Payload) []StepDefinition {
	done := toSet(completed)
	var steps []StepDefinition
	for _, def := range r.registry.All() {
		if def.ComplianceCritical && done[def.ID] && def.Applicable(payloads) {
			steps = append(steps, def)
		}
	}
	return steps
}

// ValidPrefix reports whether the completed sequence is a topological
// prefix of the dependency graph: no step appears before all of its
// dependencies. Used as an integrity check when loading persisted state.
func (r *Resolver) ValidPrefix(completed []StepID) bool {
	seen := make(map[StepID]bool, len(completed))
	for _, id := range completed {
		def, ok := r.registry.Get(id)
		if !ok {
			return false
		}
		for _, dep := range def.Dependencies {
			if !seen[dep] {
				return false
			}
		}
		seen[id] = true
	}
	return true
}

func toSet(ids []StepID) map[StepID]bool {
	set := make(map[StepID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
