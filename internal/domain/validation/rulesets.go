package validation

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Federal minimum for non-hazardous hospitality work
const minimumWorkingAge = 16

// DefaultRuleSets returns the rule sets for the standard onboarding steps
func DefaultRuleSets() []RuleSet {
	return []RuleSet{
		personalInfoRules(),
		emergencyContactRules(),
		i9Section1Rules(),
		i9SupplementRules(),
		w4FormRules(),
		directDepositRules(),
		policyAcknowledgmentRules(),
	}
}

func personalInfoRules() RuleSet {
	return RuleSet{
		Name: "personal_info",
		Fields: []FieldRule{
			{Field: "first_name", Label: "First name", Tag: "required,min=1,max=50"},
			{Field: "last_name", Label: "Last name", Tag: "required,min=1,max=50"},
			{Field: "middle_initial", Label: "Middle initial", Tag: "omitempty,len=1,alpha"},
			{Field: "date_of_birth", Label: "Date of birth", Tag: "required,datetime=2006-01-02"},
			{Field: "ssn", Label: "Social Security number", Tag: "required,ssn"},
			{Field: "email", Label: "Email", Tag: "required,email"},
			{Field: "phone", Label: "Phone number", Tag: "required,e164|numeric,min=10"},
			{Field: "address_line1", Label: "Street address", Tag: "required,max=100"},
			{Field: "address_line2", Label: "Apartment or unit", Tag: "omitempty,max=100"},
			{Field: "city", Label: "City", Tag: "required,max=60"},
			{Field: "state", Label: "State", Tag: "required,len=2,alpha"},
			{Field: "zip_code", Label: "ZIP code", Tag: "required,us_zip"},
		},
		Cross: []CrossRule{
			{
				ID: "working_age",
				Check: func(p Payload) string {
					dob, ok := parseDate(p, "date_of_birth")
					if !ok {
						return ""
					}
					cutoff := time.Now().UTC().AddDate(-minimumWorkingAge, 0, 0)
					if dob.After(cutoff) {
						return "Employee must be at least 16 years old"
					}
					if dob.Before(time.Now().UTC().AddDate(-110, 0, 0)) {
						return "Date of birth is implausibly far in the past"
					}
					return ""
				},
			},
		},
	}
}

func emergencyContactRules() RuleSet {
	return RuleSet{
		Name: "emergency_contact",
		Fields: []FieldRule{
			{Field: "contact_name", Label: "Contact name", Tag: "required,min=1,max=100"},
			{Field: "relationship", Label: "Relationship", Tag: "required,max=50"},
			{Field: "contact_phone", Label: "Contact phone", Tag: "required,e164|numeric,min=10"},
			{Field: "contact_email", Label: "Contact email", Tag: "omitempty,email"},
		},
	}
}

func i9Section1Rules() RuleSet {
	return RuleSet{
		Name: "i9_section1",
		Fields: []FieldRule{
			{
				Field: "citizenship_status",
				Label: "Citizenship status",
				Tag:   "required,oneof=citizen national permanent_resident authorized_alien",
			},
			{Field: "signature_name", Label: "Signature name", Tag: "required,min=1,max=100"},
			{Field: "attestation_date", Label: "Attestation date", Tag: "required,datetime=2006-01-02"},
		},
		Conditional: []ConditionalRule{
			{
				Rule: FieldRule{Field: "uscis_number", Label: "USCIS number", Tag: "required,numeric,min=7,max=9"},
				When: statusOneOf("permanent_resident"),
			},
			{
				Rule: FieldRule{
					Field: "work_authorization",
					Label: "Work authorization document",
					Tag:   "required,oneof=uscis_number i94_number foreign_passport",
				},
				When: statusOneOf("authorized_alien"),
			},
			{
				Rule: FieldRule{Field: "work_auth_expiry", Label: "Work authorization expiry", Tag: "required,datetime=2006-01-02"},
				When: statusOneOf("authorized_alien"),
			},
		},
		Cross: []CrossRule{
			{
				ID: "work_auth_not_expired",
				Check: func(p Payload) string {
					if !statusOneOf("authorized_alien")(p) {
						return ""
					}
					expiry, ok := parseDate(p, "work_auth_expiry")
					if !ok {
						return ""
					}
					if expiry.Before(truncateToDay(time.Now().UTC())) {
						return "Work authorization must not already be expired"
					}
					return ""
				},
			},
		},
	}
}

func i9SupplementRules() RuleSet {
	return RuleSet{
		Name: "i9_supplement",
		Fields: []FieldRule{
			{Field: "document_title", Label: "Document title", Tag: "required,max=100"},
			{Field: "document_number", Label: "Document number", Tag: "required,max=50"},
			{Field: "issuing_authority", Label: "Issuing authority", Tag: "required,max=100"},
			{Field: "document_expiry", Label: "Document expiry", Tag: "omitempty,datetime=2006-01-02"},
		},
	}
}

func w4FormRules() RuleSet {
	return RuleSet{
		Name: "w4_form",
		Fields: []FieldRule{
			{
				Field: "filing_status",
				Label: "Filing status",
				Tag:   "required,oneof=single married_filing_jointly head_of_household",
			},
			{Field: "multiple_jobs", Label: "Multiple jobs", Tag: "omitempty,boolean"},
			{Field: "dependents_amount", Label: "Dependents amount", Tag: "omitempty,numeric"},
			{Field: "other_dependents_amount", Label: "Other dependents amount", Tag: "omitempty,numeric"},
			{Field: "other_income", Label: "Other income", Tag: "omitempty,numeric"},
			{Field: "deductions", Label: "Deductions", Tag: "omitempty,numeric"},
			{Field: "extra_withholding", Label: "Extra withholding", Tag: "omitempty,numeric"},
		},
		Cross: []CrossRule{
			{
				ID: "amounts_non_negative",
				Check: func(p Payload) string {
					for _, field := range []string{"dependents_amount", "other_dependents_amount", "other_income", "deductions", "extra_withholding"} {
						amount, ok := parseAmount(p, field)
						if ok && amount.IsNegative() {
							return "Withholding amounts must not be negative"
						}
					}
					return ""
				},
			},
			{
				ID: "dependents_in_credit_increments",
				Check: func(p Payload) string {
					amount, ok := parseAmount(p, "dependents_amount")
					if !ok || amount.IsZero() {
						return ""
					}
					// Line 3 combines $2,000 child credits and $500 other-dependent credits
					if !amount.Mod(decimal.NewFromInt(500)).IsZero() {
						return "Dependents amount must be a multiple of $500"
					}
					return ""
				},
			},
		},
	}
}

func directDepositRules() RuleSet {
	return RuleSet{
		Name: "direct_deposit",
		Fields: []FieldRule{
			{Field: "bank_name", Label: "Bank name", Tag: "required,max=100"},
			{Field: "routing_number", Label: "Routing number", Tag: "required,aba_routing"},
			{Field: "account_number", Label: "Account number", Tag: "required,numeric,min=4,max=17"},
			{Field: "account_type", Label: "Account type", Tag: "required,oneof=checking savings"},
		},
		Cross: []CrossRule{
			{
				ID: "account_differs_from_routing",
				Check: func(p Payload) string {
					if payloadString(p, "account_number") != "" &&
						payloadString(p, "account_number") == payloadString(p, "routing_number") {
						return "Account number must differ from routing number"
					}
					return ""
				},
			},
		},
	}
}

func policyAcknowledgmentRules() RuleSet {
	return RuleSet{
		Name: "policy_acknowledgment",
		Fields: []FieldRule{
			{
				Field:   "acknowledged",
				Label:   "Acknowledgment",
				Tag:     "required,eq=true",
				Message: "Policies must be acknowledged to continue",
			},
			{Field: "acknowledged_name", Label: "Acknowledged name", Tag: "required,min=1,max=100"},
		},
	}
}

func statusOneOf(statuses ...string) WhenFunc {
	return func(p Payload) bool {
		current := payloadString(p, "citizenship_status")
		for _, s := range statuses {
			if current == s {
				return true
			}
		}
		return false
	}
}

func payloadString(p Payload, field string) string {
	s, _ := p[field].(string)
	return s
}

func parseDate(p Payload, field string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, payloadString(p, field))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseAmount(p Payload, field string) (decimal.Decimal, bool) {
	raw := stringValue(p[field])
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
