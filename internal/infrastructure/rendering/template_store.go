package rendering

import (
	"embed"
	"fmt"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormTemplate is one official template revision with loaded content.
// Templates are versioned against the government revision of the form;
// a document always records the exact version it was rendered from.
type FormTemplate struct {
	DocumentType onboarding.DocumentType
	Version      string
	Title        string
	FilePath     string
	Content      string
}

type templateKey struct {
	docType onboarding.DocumentType
	version string
}

// TemplateStore holds the embedded official form templates, keyed by
// document type and template version. Content is read once at startup.
type TemplateStore struct {
	templates map[templateKey]*FormTemplate
}

// NewTemplateStore loads every embedded template revision
func NewTemplateStore() (*TemplateStore, error) {
	catalog := []FormTemplate{
		{
			DocumentType: onboarding.DocTypeI9,
			Version:      onboarding.TemplateVersionI9,
			Title:        "Form I-9, Employment Eligibility Verification",
			FilePath:     "templates/i9_2023_08.html",
		},
		{
			DocumentType: onboarding.DocTypeW4,
			Version:      onboarding.TemplateVersionW4,
			Title:        "Form W-4, Employee's Withholding Certificate",
			FilePath:     "templates/w4_2025_01.html",
		},
		{
			DocumentType: onboarding.DocTypePolicy,
			Version:      onboarding.TemplateVersionPolicy,
			Title:        "Company Policy Acknowledgment",
			FilePath:     "templates/policy_ack_1_2.html",
		},
	}

	store := &TemplateStore{templates: make(map[templateKey]*FormTemplate, len(catalog))}
	for i := range catalog {
		t := catalog[i]
		content, err := templateFS.ReadFile(t.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", t.FilePath, err)
		}
		t.Content = string(content)
		store.templates[templateKey{t.DocumentType, t.Version}] = &t
	}

	return store, nil
}

// Get returns the template for a document type and version. Unknown
// combinations fail with TemplateUnavailable: rendering against a
// template revision this build does not carry must never fall back to
// a different revision.
func (s *TemplateStore) Get(docType onboarding.DocumentType, version string) (*FormTemplate, error) {
	t, ok := s.templates[templateKey{docType, version}]
	if !ok {
		return nil, shared.NewDomainErrorWithDetails(shared.CodeTemplateUnavailable,
			fmt.Sprintf("No template for document type %s version %s", docType, version),
			map[string]any{"document_type": string(docType), "template_version": version})
	}
	return t, nil
}
