package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lodgehr/backend/internal/domain/shared"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Engine validates step payloads against named rule sets.
// Field rules run first; cross-field rules only run once every
// field rule passed, so they can assume well-formed values.
type Engine struct {
	validate *validator.Validate
	ruleSets map[string]RuleSet
}

// NewEngine creates an engine with the given rule sets registered
func NewEngine(ruleSets []RuleSet) (*Engine, error) {
	v := validator.New()
	if err := v.RegisterValidation("ssn", validateSSN); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("ein", validateEIN); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("aba_routing", validateRoutingNumber); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("us_zip", validateZip); err != nil {
		return nil, err
	}

	byName := make(map[string]RuleSet, len(ruleSets))
	for _, rs := range ruleSets {
		if rs.Name == "" {
			return nil, fmt.Errorf("rule set with empty name")
		}
		if _, exists := byName[rs.Name]; exists {
			return nil, fmt.Errorf("duplicate rule set %q", rs.Name)
		}
		byName[rs.Name] = rs
	}

	return &Engine{validate: v, ruleSets: byName}, nil
}

// HasRuleSet reports whether a rule set is registered
func (e *Engine) HasRuleSet(name string) bool {
	_, ok := e.ruleSets[name]
	return ok
}

// Validate checks payload against the named rule set
func (e *Engine) Validate(ruleSetName string, payload Payload) (*Result, error) {
	rs, ok := e.ruleSets[ruleSetName]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeValidationFailed,
			fmt.Sprintf("unknown rule set: %s", ruleSetName))
	}

	result := &Result{}
	for _, rule := range rs.Fields {
		e.checkField(rule, payload, result)
	}
	for _, cond := range rs.Conditional {
		if cond.When == nil || cond.When(payload) {
			e.checkField(cond.Rule, payload, result)
		}
	}
	if !result.Valid() {
		return result, nil
	}

	for _, cross := range rs.Cross {
		if msg := cross.Check(payload); msg != "" {
			result.AddViolation(msg)
		}
	}
	return result, nil
}

func (e *Engine) checkField(rule FieldRule, payload Payload, result *Result) {
	value := stringValue(payload[rule.Field])
	err := e.validate.Var(value, rule.Tag)
	if err == nil {
		return
	}
	if rule.Message != "" {
		result.AddFieldError(rule.Field, rule.Message)
		return
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		result.AddFieldError(rule.Field, fieldMessage(rule, errs[0]))
		return
	}
	result.AddFieldError(rule.Field, rule.label()+" is invalid")
}

func (r FieldRule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Field
}

// stringValue coerces a payload value to its string form for tag validation
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; keep integers undecorated
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// fieldMessage builds a human-readable message for a failed tag
func fieldMessage(rule FieldRule, e validator.FieldError) string {
	label := rule.label()
	switch e.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		return label + " must be at least " + e.Param() + " characters"
	case "max":
		return label + " must be at most " + e.Param() + " characters"
	case "len":
		return label + " must be exactly " + e.Param() + " characters"
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "numeric":
		return label + " must be numeric"
	case "datetime":
		return label + " must be a date in " + e.Param() + " format"
	case "ssn":
		return label + " must be a valid Social Security number"
	case "ein":
		return label + " must be a valid Employer Identification Number"
	case "aba_routing":
		return label + " must be a valid ABA routing number"
	case "us_zip":
		return label + " must be a valid ZIP code"
	case "eq":
		return label + " must equal " + e.Param()
	case "boolean":
		return label + " must be true or false"
	default:
		return label + " is invalid"
	}
}

// digitsOnly strips separators commonly typed into identifier fields
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != '-' && r != ' ' {
			// any other character disqualifies the value
			return ""
		}
	}
	return b.String()
}

// validateSSN checks SSA issuance rules: area not 000, 666 or 900-999,
// group not 00, serial not 0000.
func validateSSN(fl validator.FieldLevel) bool {
	digits := digitsOnly(fl.Field().String())
	if len(digits) != 9 {
		return false
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

func validateEIN(fl validator.FieldLevel) bool {
	digits := digitsOnly(fl.Field().String())
	return len(digits) == 9 && digits[0:2] != "00"
}

// validateRoutingNumber applies the ABA mod-10 checksum with weights 3, 7, 1
func validateRoutingNumber(fl validator.FieldLevel) bool {
	digits := digitsOnly(fl.Field().String())
	if len(digits) != 9 {
		return false
	}
	weights := [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	return sum%10 == 0
}

func validateZip(fl validator.FieldLevel) bool {
	return zipPattern.MatchString(fl.Field().String())
}
