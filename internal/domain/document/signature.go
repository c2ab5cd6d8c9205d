package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// SignatureRecord captures the one-time signing act for a generated
// document. It is embedded into the PDF's compliance block and stored
// adjacent to the document, never inside a mutable field. Creation is
// non-retractable: corrections require a new document version.
type SignatureRecord struct {
	SignerEmployeeID uuid.UUID
	SignerName       string
	// SignedAt is always UTC
	SignedAt  time.Time
	IPAddress string
	// Artifact is the opaque signature payload (PNG or SVG bytes)
	Artifact []byte
	// AttestationText is the literal the signer agreed to
	AttestationText string
}

// NewSignatureRecord creates a signature record stamped at the current
// UTC time
func NewSignatureRecord(signerID uuid.UUID, signerName, ipAddress string, artifact []byte, attestation string) SignatureRecord {
	return SignatureRecord{
		SignerEmployeeID: signerID,
		SignerName:       signerName,
		SignedAt:         time.Now().UTC(),
		IPAddress:        ipAddress,
		Artifact:         artifact,
		AttestationText:  attestation,
	}
}

func (r SignatureRecord) validate() error {
	if r.SignerEmployeeID == uuid.Nil {
		return shared.NewDomainError("INVALID_SIGNER", "Signer identity is required")
	}
	if r.SignerName == "" {
		return shared.NewDomainError("INVALID_SIGNER", "Signer name is required")
	}
	if len(r.Artifact) == 0 {
		return shared.NewDomainError("INVALID_SIGNATURE", "Signature artifact cannot be empty")
	}
	if r.AttestationText == "" {
		return shared.NewDomainError("INVALID_ATTESTATION", "Attestation text is required")
	}
	if r.SignedAt.IsZero() {
		return shared.NewDomainError("INVALID_SIGNATURE", "Signature timestamp is required")
	}
	return nil
}
