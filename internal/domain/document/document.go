package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// DocumentStatus represents the finalization state of a generated document
type DocumentStatus string

// Document states
const (
	StatusUnsigned DocumentStatus = "UNSIGNED"
	StatusSigned   DocumentStatus = "SIGNED"
)

// GeneratedDocument is the rendered official form for one compliance-
// critical step of one session. Once signed it is immutable: a data
// correction produces a new document that supersedes this one, and the
// prior version is retained for audit.
type GeneratedDocument struct {
	shared.BaseAggregateRoot
	SessionID       uuid.UUID
	StepID          onboarding.StepID
	DocumentType    onboarding.DocumentType
	TemplateVersion string
	RenderedAt      time.Time
	// ContentHash is the SHA-256 of the stored bytes; recomputed when
	// signing finalizes the file
	ContentHash      string
	Status           DocumentStatus
	StorageReference string
	// UnmappedFields records payload fields that had no entry in the
	// field-mapping table. They are skipped during rendering but kept
	// here for the audit trail.
	UnmappedFields []string
	// SupersededBy points at the replacement document after a data
	// correction; nil for the current version
	SupersededBy *uuid.UUID
	// Signature is set exactly once, by Sign
	Signature *SignatureRecord
}

// NewGeneratedDocument creates an unsigned document after rendering
func NewGeneratedDocument(
	sessionID uuid.UUID,
	stepID onboarding.StepID,
	docType onboarding.DocumentType,
	templateVersion string,
	contentHash string,
	storageRef string,
	unmappedFields []string,
) (*GeneratedDocument, error) {
	if sessionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session ID cannot be empty")
	}
	if stepID == "" {
		return nil, shared.NewDomainError("INVALID_STEP", "Step ID cannot be empty")
	}
	if docType == "" || templateVersion == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "Document type and template version are required")
	}
	if contentHash == "" {
		return nil, shared.NewDomainError("INVALID_HASH", "Content hash cannot be empty")
	}
	if storageRef == "" {
		return nil, shared.NewDomainError("INVALID_STORAGE_REF", "Storage reference cannot be empty")
	}

	doc := &GeneratedDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SessionID:         sessionID,
		StepID:            stepID,
		DocumentType:      docType,
		TemplateVersion:   templateVersion,
		RenderedAt:        time.Now().UTC(),
		ContentHash:       contentHash,
		Status:            StatusUnsigned,
		StorageReference:  storageRef,
		UnmappedFields:    unmappedFields,
	}

	doc.AddDomainEvent(NewDocumentGeneratedEvent(doc))

	return doc, nil
}

// IsSigned returns true once the document has been finalized
func (d *GeneratedDocument) IsSigned() bool {
	return d.Status == StatusSigned
}

// IsSuperseded returns true if a correction replaced this document
func (d *GeneratedDocument) IsSuperseded() bool {
	return d.SupersededBy != nil
}

// Sign embeds the signature and finalizes the document. The content
// hash and storage reference are replaced by those of the final bytes.
// Signing is single-use: a second call fails with AlreadySigned and
// must leave the stored artifact untouched.
func (d *GeneratedDocument) Sign(record SignatureRecord, finalHash, finalStorageRef string) error {
	if d.IsSigned() {
		return shared.ErrAlreadySigned
	}
	if err := record.validate(); err != nil {
		return err
	}
	if finalHash == "" || finalStorageRef == "" {
		return shared.NewDomainError("INVALID_FINALIZATION", "Final hash and storage reference are required")
	}

	rec := record
	d.Signature = &rec
	d.ContentHash = finalHash
	d.StorageReference = finalStorageRef
	d.Status = StatusSigned
	d.Touch(time.Now())
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentSignedEvent(d))

	return nil
}

// MarkSuperseded links this document to its replacement. Allowed in
// any state; signed predecessors stay on file for audit.
func (d *GeneratedDocument) MarkSuperseded(replacementID uuid.UUID) error {
	if replacementID == uuid.Nil || replacementID == d.ID {
		return shared.NewDomainError("INVALID_SUPERSEDE", "Replacement document ID is invalid")
	}
	if d.SupersededBy != nil {
		return shared.NewDomainError("INVALID_STATE", "Document is already superseded")
	}
	d.SupersededBy = &replacementID
	d.Touch(time.Now())
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentSupersededEvent(d, replacementID))
	return nil
}
