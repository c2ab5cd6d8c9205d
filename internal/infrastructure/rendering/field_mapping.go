package rendering

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// TemplateData is the model a form template executes against. Fields
// holds the mapped payload values, Signature is nil until the document
// has been signed.
type TemplateData struct {
	Title           string
	TemplateVersion string
	GeneratedAt     string
	DocumentID      string
	SourceHash      string
	Fields          map[string]any
	Signature       *SignatureData
}

// SignatureData carries the signature block for a finalized render.
// Timestamps are pre-formatted strings so templates stay declarative.
type SignatureData struct {
	SignerName      string
	SignedAt        string
	IPAddress       string
	Artifact        []byte
	AttestationText string
}

// TransformFunc reshapes a single payload value before it reaches the
// template (for example stripping separators from an SSN).
type TransformFunc func(v any) any

// FieldBinding maps one captured payload key to one template field
type FieldBinding struct {
	Target    string
	Step      onboarding.StepID
	Key       string
	Transform TransformFunc
}

// DeriveFunc computes a template field from the full set of source
// payloads rather than a single key
type DeriveFunc func(payloads map[onboarding.StepID]onboarding.Payload) any

// FieldMapping is the versioned table that places captured step data
// onto an official form revision. Each template version has exactly one
// mapping; bumping a template version requires a new table.
type FieldMapping struct {
	DocumentType onboarding.DocumentType
	Version      string
	Sources      []onboarding.StepID
	Bindings     []FieldBinding
	Derived      map[string]DeriveFunc
}

type mappingKey struct {
	docType onboarding.DocumentType
	version string
}

// MappedFields is the outcome of applying a mapping: the template field
// values plus every source payload key the mapping did not consume.
// Unmapped keys are kept for the audit trail, never silently dropped.
type MappedFields struct {
	Fields   map[string]any
	Unmapped []string
}

// FieldMapper applies the versioned mapping tables
type FieldMapper struct {
	mappings map[mappingKey]*FieldMapping
}

func NewFieldMapper() *FieldMapper {
	mapper := &FieldMapper{mappings: make(map[mappingKey]*FieldMapping)}
	for _, m := range defaultFieldMappings() {
		mapper.mappings[mappingKey{m.DocumentType, m.Version}] = m
	}
	return mapper
}

// Map applies the mapping table for a document type and template
// version to the session's captured payloads. A missing table fails
// with TemplateUnavailable so a document can never be rendered from a
// revision this build has no placement rules for.
func (m *FieldMapper) Map(docType onboarding.DocumentType, version string, payloads map[onboarding.StepID]onboarding.Payload) (*MappedFields, error) {
	mapping, ok := m.mappings[mappingKey{docType, version}]
	if !ok {
		return nil, shared.NewDomainErrorWithDetails(shared.CodeTemplateUnavailable,
			fmt.Sprintf("No field mapping for document type %s version %s", docType, version),
			map[string]any{"document_type": string(docType), "template_version": version})
	}

	fields := make(map[string]any, len(mapping.Bindings)+len(mapping.Derived))
	consumed := make(map[string]bool, len(mapping.Bindings))

	for _, b := range mapping.Bindings {
		// Every target is present so templates never render a
		// missing-key placeholder
		fields[b.Target] = ""

		payload, ok := payloads[b.Step]
		if !ok {
			continue
		}
		v, ok := payload[b.Key]
		if !ok {
			continue
		}
		consumed[string(b.Step)+"."+b.Key] = true
		if b.Transform != nil {
			v = b.Transform(v)
		}
		fields[b.Target] = v
	}

	for target, derive := range mapping.Derived {
		fields[target] = derive(payloads)
	}

	var unmapped []string
	for _, step := range mapping.Sources {
		payload, ok := payloads[step]
		if !ok {
			continue
		}
		for key := range payload {
			qualified := string(step) + "." + key
			if !consumed[qualified] {
				unmapped = append(unmapped, qualified)
			}
		}
	}
	sort.Strings(unmapped)

	return &MappedFields{Fields: fields, Unmapped: unmapped}, nil
}

func defaultFieldMappings() []*FieldMapping {
	return []*FieldMapping{
		i9Mapping2023_08(),
		w4Mapping2025_01(),
		policyMapping1_2(),
	}
}

// i9Mapping2023_08 places personal information and the Section 1
// attestation onto the 2023.08 revision of Form I-9
func i9Mapping2023_08() *FieldMapping {
	return &FieldMapping{
		DocumentType: onboarding.DocTypeI9,
		Version:      onboarding.TemplateVersionI9,
		Sources:      []onboarding.StepID{onboarding.StepPersonalInfo, onboarding.StepI9Section1, onboarding.StepI9Supplement},
		Bindings: []FieldBinding{
			{Target: "last_name", Step: onboarding.StepPersonalInfo, Key: "last_name"},
			{Target: "first_name", Step: onboarding.StepPersonalInfo, Key: "first_name"},
			{Target: "middle_initial", Step: onboarding.StepPersonalInfo, Key: "middle_initial"},
			{Target: "date_of_birth", Step: onboarding.StepPersonalInfo, Key: "date_of_birth"},
			{Target: "address_line1", Step: onboarding.StepPersonalInfo, Key: "address_line1"},
			{Target: "address_line2", Step: onboarding.StepPersonalInfo, Key: "address_line2"},
			{Target: "city", Step: onboarding.StepPersonalInfo, Key: "city"},
			{Target: "state", Step: onboarding.StepPersonalInfo, Key: "state"},
			{Target: "zip_code", Step: onboarding.StepPersonalInfo, Key: "zip_code"},
			{Target: "email", Step: onboarding.StepPersonalInfo, Key: "email"},
			{Target: "phone", Step: onboarding.StepPersonalInfo, Key: "phone"},
			{Target: "ssn", Step: onboarding.StepPersonalInfo, Key: "ssn", Transform: stripToDigits},
			{Target: "citizenship_status", Step: onboarding.StepI9Section1, Key: "citizenship_status"},
			{Target: "uscis_number", Step: onboarding.StepI9Section1, Key: "uscis_number"},
			{Target: "work_auth_expiry", Step: onboarding.StepI9Section1, Key: "work_auth_expiry"},
			{Target: "signature_name", Step: onboarding.StepI9Section1, Key: "signature_name"},
			{Target: "attestation_date", Step: onboarding.StepI9Section1, Key: "attestation_date"},
		},
	}
}

// w4Mapping2025_01 places personal information and withholding
// elections onto the 2025.01 revision of Form W-4. Step 3 line totals
// are derived here so the rendered sum always matches the inputs.
func w4Mapping2025_01() *FieldMapping {
	return &FieldMapping{
		DocumentType: onboarding.DocTypeW4,
		Version:      onboarding.TemplateVersionW4,
		Sources:      []onboarding.StepID{onboarding.StepPersonalInfo, onboarding.StepW4Form},
		Bindings: []FieldBinding{
			{Target: "first_name", Step: onboarding.StepPersonalInfo, Key: "first_name"},
			{Target: "middle_initial", Step: onboarding.StepPersonalInfo, Key: "middle_initial"},
			{Target: "last_name", Step: onboarding.StepPersonalInfo, Key: "last_name"},
			{Target: "address_line1", Step: onboarding.StepPersonalInfo, Key: "address_line1"},
			{Target: "address_line2", Step: onboarding.StepPersonalInfo, Key: "address_line2"},
			{Target: "city", Step: onboarding.StepPersonalInfo, Key: "city"},
			{Target: "state", Step: onboarding.StepPersonalInfo, Key: "state"},
			{Target: "zip_code", Step: onboarding.StepPersonalInfo, Key: "zip_code"},
			{Target: "ssn", Step: onboarding.StepPersonalInfo, Key: "ssn", Transform: stripToDigits},
			{Target: "filing_status", Step: onboarding.StepW4Form, Key: "filing_status"},
			{Target: "multiple_jobs", Step: onboarding.StepW4Form, Key: "multiple_jobs"},
			{Target: "dependents_amount", Step: onboarding.StepW4Form, Key: "dependents_amount"},
			{Target: "other_dependents_amount", Step: onboarding.StepW4Form, Key: "other_dependents_amount"},
			{Target: "other_income", Step: onboarding.StepW4Form, Key: "other_income"},
			{Target: "deductions", Step: onboarding.StepW4Form, Key: "deductions"},
			{Target: "extra_withholding", Step: onboarding.StepW4Form, Key: "extra_withholding"},
		},
		Derived: map[string]DeriveFunc{
			"total_credits": func(payloads map[onboarding.StepID]onboarding.Payload) any {
				w4 := payloads[onboarding.StepW4Form]
				total := decimalOrZero(w4["dependents_amount"]).Add(decimalOrZero(w4["other_dependents_amount"]))
				return total
			},
		},
	}
}

// policyMapping1_2 places identity and acknowledgment fields onto
// revision 1.2 of the policy acknowledgment letter
func policyMapping1_2() *FieldMapping {
	return &FieldMapping{
		DocumentType: onboarding.DocTypePolicy,
		Version:      onboarding.TemplateVersionPolicy,
		Sources:      []onboarding.StepID{onboarding.StepPersonalInfo, onboarding.StepPolicyAck},
		Bindings: []FieldBinding{
			{Target: "first_name", Step: onboarding.StepPersonalInfo, Key: "first_name"},
			{Target: "last_name", Step: onboarding.StepPersonalInfo, Key: "last_name"},
			{Target: "job_title", Step: onboarding.StepPersonalInfo, Key: "job_title"},
			{Target: "property_name", Step: onboarding.StepPersonalInfo, Key: "property_name"},
			{Target: "acknowledged", Step: onboarding.StepPolicyAck, Key: "acknowledged"},
			{Target: "acknowledged_at", Step: onboarding.StepPolicyAck, Key: "acknowledged_at"},
		},
	}
}

// stripToDigits normalizes separator-formatted identifiers so templates
// re-apply the official formatting themselves
func stripToDigits(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return digitsOnly(s)
}

func decimalOrZero(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	default:
		return decimal.Zero
	}
}
