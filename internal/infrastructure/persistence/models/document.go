package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// DocumentModel is the persistence model for the GeneratedDocument
// aggregate root. Signature fields are flattened onto the row; a NULL
// signed_at means the document is still unsigned.
type DocumentModel struct {
	AggregateModel
	SessionID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_documents_session_step,priority:1;index"`
	StepID             string     `gorm:"type:varchar(64);not null;index:idx_documents_session_step,priority:2"`
	DocumentType       string     `gorm:"type:varchar(20);not null"`
	TemplateVersion    string     `gorm:"type:varchar(20);not null"`
	RenderedAt         time.Time  `gorm:"not null"`
	ContentHash        string     `gorm:"type:varchar(80);not null"`
	Status             string     `gorm:"type:varchar(16);not null;index"`
	StorageReference   string     `gorm:"type:text;not null"`
	UnmappedFieldsJSON string     `gorm:"column:unmapped_fields;type:jsonb;default:'[]'"`
	SupersededBy       *uuid.UUID `gorm:"type:uuid"`
	SignerEmployeeID   *uuid.UUID `gorm:"type:uuid"`
	SignerName         *string    `gorm:"type:varchar(100)"`
	SignedAt           *time.Time `gorm:""`
	SignerIP           *string    `gorm:"type:varchar(45)"`
	SignatureArtifact  []byte     `gorm:"type:bytea"`
	AttestationText    *string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "generated_documents"
}

// ToDomain converts the persistence model to a domain GeneratedDocument
func (m *DocumentModel) ToDomain() *document.GeneratedDocument {
	doc := &document.GeneratedDocument{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		SessionID:        m.SessionID,
		StepID:           onboarding.StepID(m.StepID),
		DocumentType:     onboarding.DocumentType(m.DocumentType),
		TemplateVersion:  m.TemplateVersion,
		RenderedAt:       m.RenderedAt,
		ContentHash:      m.ContentHash,
		Status:           document.DocumentStatus(m.Status),
		StorageReference: m.StorageReference,
		SupersededBy:     m.SupersededBy,
	}

	if m.UnmappedFieldsJSON != "" && m.UnmappedFieldsJSON != "[]" {
		var fields []string
		if err := json.Unmarshal([]byte(m.UnmappedFieldsJSON), &fields); err != nil {
			modelLogger.Warn("failed to parse unmapped_fields JSON",
				zap.String("document_id", m.ID.String()),
				zap.Error(err))
		} else {
			doc.UnmappedFields = fields
		}
	}

	if m.SignedAt != nil && m.SignerEmployeeID != nil {
		doc.Signature = &document.SignatureRecord{
			SignerEmployeeID: *m.SignerEmployeeID,
			SignerName:       derefString(m.SignerName),
			SignedAt:         *m.SignedAt,
			IPAddress:        derefString(m.SignerIP),
			Artifact:         m.SignatureArtifact,
			AttestationText:  derefString(m.AttestationText),
		}
	}

	return doc
}

// FromDomain populates the persistence model from a domain GeneratedDocument
func (m *DocumentModel) FromDomain(d *document.GeneratedDocument) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.SessionID = d.SessionID
	m.StepID = string(d.StepID)
	m.DocumentType = string(d.DocumentType)
	m.TemplateVersion = d.TemplateVersion
	m.RenderedAt = d.RenderedAt
	m.ContentHash = d.ContentHash
	m.Status = string(d.Status)
	m.StorageReference = d.StorageReference
	m.SupersededBy = d.SupersededBy
	m.UnmappedFieldsJSON = "[]"
	if len(d.UnmappedFields) > 0 {
		m.UnmappedFieldsJSON = marshalOr(d.UnmappedFields, "[]")
	}

	m.SignerEmployeeID = nil
	m.SignerName = nil
	m.SignedAt = nil
	m.SignerIP = nil
	m.SignatureArtifact = nil
	m.AttestationText = nil
	if d.Signature != nil {
		sig := d.Signature
		m.SignerEmployeeID = &sig.SignerEmployeeID
		m.SignerName = &sig.SignerName
		m.SignedAt = &sig.SignedAt
		m.SignerIP = &sig.IPAddress
		m.SignatureArtifact = sig.Artifact
		m.AttestationText = &sig.AttestationText
	}
}

// DocumentModelFromDomain creates a persistence model from a domain document
func DocumentModelFromDomain(d *document.GeneratedDocument) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
