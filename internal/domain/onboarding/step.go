package onboarding

// StepID identifies a step in the onboarding workflow
type StepID string

// DocumentType identifies the official document a compliance-critical
// step produces (e.g. the federal I-9 employment eligibility form)
type DocumentType string

// Document types for compliance-critical steps
const (
	DocTypeI9     DocumentType = "I9"
	DocTypeW4     DocumentType = "W4"
	DocTypePolicy DocumentType = "POLICY_ACK"
)

// Payload is the validated form data captured for a single step
type Payload map[string]any

// StepCondition gates a conditional step on a value captured in an
// earlier step, e.g. the alien-registration supplement only applies
// when the I-9 citizenship selection is not "citizen".
type StepCondition struct {
	// StepID is the earlier step whose payload is examined
	StepID StepID
	// Field is the payload field to compare
	Field string
	// OneOf lists the values that satisfy the condition
	OneOf []string
	// Negate inverts the match (condition holds when the value is NOT in OneOf)
	Negate bool
}

// Evaluate returns true when the condition holds against the captured
// payloads. A condition over a step that has no payload yet evaluates
// false: the branch stays closed until the deciding value exists.
func (c *StepCondition) Evaluate(payloads map[StepID]Payload) bool {
	payload, ok := payloads[c.StepID]
	if !ok {
		return false
	}
	raw, ok := payload[c.Field]
	if !ok {
		return c.Negate
	}
	value, ok := raw.(string)
	if !ok {
		return c.Negate
	}
	for _, candidate := range c.OneOf {
		if value == candidate {
			return !c.Negate
		}
	}
	return c.Negate
}

// StepDefinition is an immutable catalog entry describing one unit of
// the onboarding workflow. Definitions are created once at process
// start and never mutated at runtime.
type StepDefinition struct {
	ID                 StepID
	Title              string
	EstimatedMinutes   int
	Required           bool
	ComplianceCritical bool
	// AllowStandalone permits direct entry via deep link once
	// dependencies are met, outside the guided sequence
	AllowStandalone bool
	Dependencies    []StepID
	// RuleSet names the validation rule set applied to this step's payload
	RuleSet string
	// DocumentType and TemplateVersion identify the official template a
	// compliance-critical step renders into; both empty otherwise
	DocumentType    DocumentType
	TemplateVersion string
	// Condition, when set, makes this a conditional step
	Condition *StepCondition
}

// IsConditional returns true if the step is gated on an earlier selection
func (d *StepDefinition) IsConditional() bool {
	return d.Condition != nil
}

// Applicable returns true when the step applies to this session: an
// unconditional step always applies, a conditional one only when its
// predicate evaluates true against the captured payloads.
func (d *StepDefinition) Applicable(payloads map[StepID]Payload) bool {
	if d.Condition == nil {
		return true
	}
	return d.Condition.Evaluate(payloads)
}
