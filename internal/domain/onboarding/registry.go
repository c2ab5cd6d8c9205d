package onboarding

import (
	"fmt"

	"github.com/lodgehr/backend/internal/domain/shared"
)

// StepRegistry is the immutable catalog of step definitions. It is
// built once at startup from static configuration; construction fails
// fast on duplicate ids, dangling dependencies or cycles, so a
// misconfigured catalog never reaches a running workflow.
type StepRegistry struct {
	ordered []StepDefinition
	byID    map[StepID]*StepDefinition
}

// NewStepRegistry builds a registry from the catalog, validating the
// dependency graph. Declaration order is preserved: it is the stable
// tie-breaker when several steps are unlocked at once.
func NewStepRegistry(catalog []StepDefinition) (*StepRegistry, error) {
	if len(catalog) == 0 {
		return nil, shared.NewDomainError("EMPTY_CATALOG", "Step catalog cannot be empty")
	}

	r := &StepRegistry{
		ordered: make([]StepDefinition, len(catalog)),
		byID:    make(map[StepID]*StepDefinition, len(catalog)),
	}
	copy(r.ordered, catalog)

	for i := range r.ordered {
		def := &r.ordered[i]
		if def.ID == "" {
			return nil, shared.NewDomainError("INVALID_STEP", "Step id cannot be empty")
		}
		if _, exists := r.byID[def.ID]; exists {
			return nil, shared.NewDomainError("DUPLICATE_STEP",
				fmt.Sprintf("Step %q is declared more than once", def.ID))
		}
		if def.ComplianceCritical && (def.DocumentType == "" || def.TemplateVersion == "") {
			return nil, shared.NewDomainError("INVALID_STEP",
				fmt.Sprintf("Compliance step %q must declare a document type and template version", def.ID))
		}
		r.byID[def.ID] = def
	}

	for i := range r.ordered {
		def := &r.ordered[i]
		for _, dep := range def.Dependencies {
			if dep == def.ID {
				return nil, shared.NewDomainError("INVALID_DEPENDENCY",
					fmt.Sprintf("Step %q depends on itself", def.ID))
			}
			if _, ok := r.byID[dep]; !ok {
				return nil, shared.NewDomainError("DANGLING_DEPENDENCY",
					fmt.Sprintf("Step %q depends on unknown step %q", def.ID, dep))
			}
		}
		if def.Condition != nil {
			if _, ok := r.byID[def.Condition.StepID]; !ok {
				return nil, shared.NewDomainError("DANGLING_DEPENDENCY",
					fmt.Sprintf("Step %q is conditional on unknown step %q", def.ID, def.Condition.StepID))
			}
		}
	}

	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}

	return r, nil
}

// checkAcyclic runs Kahn's algorithm over the dependency edges
func (r *StepRegistry) checkAcyclic() error {
	indegree := make(map[StepID]int, len(r.ordered))
	dependents := make(map[StepID][]StepID, len(r.ordered))
	for i := range r.ordered {
		def := &r.ordered[i]
		if _, ok := indegree[def.ID]; !ok {
			indegree[def.ID] = 0
		}
		for _, dep := range def.Dependencies {
			indegree[def.ID]++
			dependents[dep] = append(dependents[dep], def.ID)
		}
	}

	queue := make([]StepID, 0, len(indegree))
	for i := range r.ordered {
		if indegree[r.ordered[i].ID] == 0 {
			queue = append(queue, r.ordered[i].ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(r.ordered) {
		return shared.NewDomainError("DEPENDENCY_CYCLE", "Step catalog contains a dependency cycle")
	}
	return nil
}

// Get returns the definition for a step id
func (r *StepRegistry) Get(id StepID) (*StepDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// All returns the definitions in declaration order
func (r *StepRegistry) All() []StepDefinition {
	out := make([]StepDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered steps
func (r *StepRegistry) Len() int {
	return len(r.ordered)
}
