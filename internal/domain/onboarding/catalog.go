package onboarding

// Step ids of the default hiring catalog
const (
	StepPersonalInfo     StepID = "personal-info"
	StepEmergencyContact StepID = "emergency-contact"
	StepI9Section1       StepID = "i9-section1"
	StepI9Supplement     StepID = "i9-supplement"
	StepW4Form           StepID = "w4-form"
	StepDirectDeposit    StepID = "direct-deposit"
	StepPolicyAck        StepID = "policy-acknowledgment"
)

// Template versions track the government revision of each official
// form. Bumping a version requires a matching field-mapping table.
const (
	TemplateVersionI9     = "2023.08"
	TemplateVersionW4     = "2025.01"
	TemplateVersionPolicy = "1.2"
)

// DefaultCatalog returns the static step catalog for new-hire
// onboarding. Declaration order is the guided sequence and the
// deterministic tie-breaker among simultaneously unlocked steps.
func DefaultCatalog() []StepDefinition {
	return []StepDefinition{
		{
			ID:               StepPersonalInfo,
			Title:            "Personal Information",
			EstimatedMinutes: 5,
			Required:         true,
			RuleSet:          "personal_info",
		},
		{
			ID:               StepEmergencyContact,
			Title:            "Emergency Contact",
			EstimatedMinutes: 3,
			Required:         false,
			AllowStandalone:  true,
			Dependencies:     []StepID{StepPersonalInfo},
			RuleSet:          "emergency_contact",
		},
		{
			ID:                 StepI9Section1,
			Title:              "Employment Eligibility Verification (Form I-9, Section 1)",
			EstimatedMinutes:   10,
			Required:           true,
			ComplianceCritical: true,
			Dependencies:       []StepID{StepPersonalInfo},
			RuleSet:            "i9_section1",
			DocumentType:       DocTypeI9,
			TemplateVersion:    TemplateVersionI9,
		},
		{
			// Only employees who are not US citizens fill in the
			// alien-registration supplement.
			ID:               StepI9Supplement,
			Title:            "Work Authorization Details",
			EstimatedMinutes: 5,
			Required:         true,
			Dependencies:     []StepID{StepI9Section1},
			RuleSet:          "i9_supplement",
			Condition: &StepCondition{
				StepID: StepI9Section1,
				Field:  "citizenship_status",
				OneOf:  []string{"citizen", "national"},
				Negate: true,
			},
		},
		{
			ID:                 StepW4Form,
			Title:              "Federal Tax Withholding (Form W-4)",
			EstimatedMinutes:   10,
			Required:           true,
			ComplianceCritical: true,
			Dependencies:       []StepID{StepI9Section1},
			RuleSet:            "w4_form",
			DocumentType:       DocTypeW4,
			TemplateVersion:    TemplateVersionW4,
		},
		{
			ID:               StepDirectDeposit,
			Title:            "Direct Deposit Authorization",
			EstimatedMinutes: 5,
			Required:         false,
			AllowStandalone:  true,
			Dependencies:     []StepID{StepPersonalInfo},
			RuleSet:          "direct_deposit",
		},
		{
			ID:                 StepPolicyAck,
			Title:              "Company Policy Acknowledgment",
			EstimatedMinutes:   8,
			Required:           true,
			ComplianceCritical: true,
			Dependencies:       []StepID{StepPersonalInfo},
			RuleSet:            "policy_acknowledgment",
			DocumentType:       DocTypePolicy,
			TemplateVersion:    TemplateVersionPolicy,
		},
	}
}
