package validation

// Payload is a raw step submission keyed by field name
type Payload = map[string]any

// FieldRule validates a single payload field with validator tags.
// Tag uses go-playground/validator syntax, e.g. "required,ssn" or
// "omitempty,datetime=2006-01-02". Message overrides the generated
// message when set.
type FieldRule struct {
	Field   string
	Label   string
	Tag     string
	Message string
}

// CrossRule validates relationships between fields. Check returns an
// empty string when the rule holds, or the violation message.
type CrossRule struct {
	ID    string
	Check func(p Payload) string
}

// WhenFunc gates a FieldRule on other payload values; nil means always apply
type WhenFunc func(p Payload) bool

// ConditionalRule applies a FieldRule only when its condition holds
type ConditionalRule struct {
	Rule FieldRule
	When WhenFunc
}

// RuleSet bundles every check for one step's payload
type RuleSet struct {
	Name        string
	Fields      []FieldRule
	Conditional []ConditionalRule
	Cross       []CrossRule
}
