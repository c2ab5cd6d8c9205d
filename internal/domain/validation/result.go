package validation

// Result holds the outcome of validating a step payload.
// FieldErrors maps field names to per-field messages; RuleViolations
// collects cross-field rule messages that cannot be pinned to one field.
type Result struct {
	FieldErrors    map[string]string `json:"field_errors,omitempty"`
	RuleViolations []string          `json:"rule_violations,omitempty"`
}

// Valid reports whether the payload passed every check
func (r *Result) Valid() bool {
	return len(r.FieldErrors) == 0 && len(r.RuleViolations) == 0
}

// AddFieldError records a field-level failure, keeping the first message per field
func (r *Result) AddFieldError(field, message string) {
	if r.FieldErrors == nil {
		r.FieldErrors = make(map[string]string)
	}
	if _, exists := r.FieldErrors[field]; !exists {
		r.FieldErrors[field] = message
	}
}

// AddViolation records a cross-field rule failure
func (r *Result) AddViolation(message string) {
	r.RuleViolations = append(r.RuleViolations, message)
}
