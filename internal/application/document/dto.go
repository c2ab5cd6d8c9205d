package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/lodgehr/backend/internal/domain/document"
)

// DocumentResponse represents a generated document in API responses
type DocumentResponse struct {
	DocumentID      uuid.UUID  `json:"document_id"`
	SessionID       uuid.UUID  `json:"session_id"`
	StepID          string     `json:"step_id"`
	DocumentType    string     `json:"document_type"`
	TemplateVersion string     `json:"template_version"`
	Status          string     `json:"status"`
	RenderedAt      time.Time  `json:"rendered_at"`
	ContentHash     string     `json:"content_hash"`
	UnmappedFields  []string   `json:"unmapped_fields,omitempty"`
	SupersededBy    *uuid.UUID `json:"superseded_by,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
	SignerName      string     `json:"signer_name,omitempty"`
	// AlreadySigned marks a replayed sign or generate call that was
	// answered with the finalized document instead of a conflict
	AlreadySigned bool `json:"already_signed,omitempty"`
}

// GenerateRequest controls document generation. Force permits
// superseding an already-signed document after a data correction.
type GenerateRequest struct {
	Force bool `json:"force"`
}

// SignRequest carries an employee signature. Artifact is the raw
// signature image bytes (base64 in JSON); IPAddress is filled in by
// the transport layer, never by the client.
type SignRequest struct {
	SignerName      string `json:"signer_name" binding:"required"`
	Artifact        []byte `json:"artifact" binding:"required"`
	AttestationText string `json:"attestation_text"`
	IPAddress       string `json:"-"`
}

// DownloadResponse carries a time-limited download URL
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toDocumentResponse(doc *document.GeneratedDocument) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:      doc.ID,
		SessionID:       doc.SessionID,
		StepID:          string(doc.StepID),
		DocumentType:    string(doc.DocumentType),
		TemplateVersion: doc.TemplateVersion,
		Status:          string(doc.Status),
		RenderedAt:      doc.RenderedAt,
		ContentHash:     doc.ContentHash,
		UnmappedFields:  doc.UnmappedFields,
		SupersededBy:    doc.SupersededBy,
	}
	if doc.Signature != nil {
		signedAt := doc.Signature.SignedAt
		resp.SignedAt = &signedAt
		resp.SignerName = doc.Signature.SignerName
	}
	return resp
}
