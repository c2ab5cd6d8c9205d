package document

import (
	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeDocument = "GeneratedDocument"

// Event type constants
const (
	EventTypeDocumentGenerated  = "DocumentGenerated"
	EventTypeDocumentSigned     = "DocumentSigned"
	EventTypeDocumentSuperseded = "DocumentSuperseded"
)

// DocumentGeneratedEvent is published when a document is rendered
type DocumentGeneratedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID               `json:"document_id"`
	SessionID    uuid.UUID               `json:"session_id"`
	StepID       onboarding.StepID       `json:"step_id"`
	DocumentType onboarding.DocumentType `json:"document_type"`
	ContentHash  string                  `json:"content_hash"`
}

// NewDocumentGeneratedEvent creates a new DocumentGeneratedEvent
func NewDocumentGeneratedEvent(d *GeneratedDocument) *DocumentGeneratedEvent {
	return &DocumentGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentGenerated, AggregateTypeDocument, d.ID),
		DocumentID:      d.ID,
		SessionID:       d.SessionID,
		StepID:          d.StepID,
		DocumentType:    d.DocumentType,
		ContentHash:     d.ContentHash,
	}
}

// DocumentSignedEvent is published when a document is finalized
type DocumentSignedEvent struct {
	shared.BaseDomainEvent
	DocumentID  uuid.UUID `json:"document_id"`
	SessionID   uuid.UUID `json:"session_id"`
	ContentHash string    `json:"content_hash"`
}

// NewDocumentSignedEvent creates a new DocumentSignedEvent
func NewDocumentSignedEvent(d *GeneratedDocument) *DocumentSignedEvent {
	return &DocumentSignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSigned, AggregateTypeDocument, d.ID),
		DocumentID:      d.ID,
		SessionID:       d.SessionID,
		ContentHash:     d.ContentHash,
	}
}

// DocumentSupersededEvent is published when a correction replaces a document
type DocumentSupersededEvent struct {
	shared.BaseDomainEvent
	DocumentID    uuid.UUID `json:"document_id"`
	ReplacementID uuid.UUID `json:"replacement_id"`
}

// NewDocumentSupersededEvent creates a new DocumentSupersededEvent
func NewDocumentSupersededEvent(d *GeneratedDocument, replacementID uuid.UUID) *DocumentSupersededEvent {
	return &DocumentSupersededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentSuperseded, AggregateTypeDocument, d.ID),
		DocumentID:      d.ID,
		ReplacementID:   replacementID,
	}
}
