package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
	"github.com/lodgehr/backend/internal/infrastructure/rendering"
)

// DefaultAttestation is the attestation text applied when a signer
// does not supply one
const DefaultAttestation = "I attest, under penalty of perjury, that the information I have provided is true and correct."

const signedAtLayout = "2006-01-02 15:04:05"

// DocumentService renders official onboarding forms to PDF, embeds
// signatures, and manages the supersede chain after data corrections.
type DocumentService struct {
	sessions       onboarding.SessionRepository
	documents      document.DocumentRepository
	resolver       *onboarding.Resolver
	templates      *rendering.TemplateStore
	engine         *rendering.TemplateEngine
	mapper         *rendering.FieldMapper
	renderer       rendering.PDFRenderer
	store          DocumentStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

func NewDocumentService(
	sessions onboarding.SessionRepository,
	documents document.DocumentRepository,
	resolver *onboarding.Resolver,
	templates *rendering.TemplateStore,
	engine *rendering.TemplateEngine,
	mapper *rendering.FieldMapper,
	renderer rendering.PDFRenderer,
	store DocumentStore,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		sessions:  sessions,
		documents: documents,
		resolver:  resolver,
		templates: templates,
		engine:    engine,
		mapper:    mapper,
		renderer:  renderer,
		store:     store,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Generate renders the official document for a completed compliance
// step. Re-generating replaces an unsigned document; replacing a signed
// one requires Force and leaves the old version in the audit trail.
func (s *DocumentService) Generate(ctx context.Context, token string, stepID onboarding.StepID, req GenerateRequest) (*DocumentResponse, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	def, ok := s.resolver.Registry().Get(stepID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeStepNotFound,
			fmt.Sprintf("Unknown step %q", stepID))
	}
	if def.DocumentType == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("Step %q does not produce a document", stepID))
	}
	if !session.HasCompleted(stepID) {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Step %q must be completed before its document can be generated", stepID))
	}

	existing, err := s.documents.FindBySessionAndStep(ctx, session.ID, stepID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	// A generate call against a finalized document is a retry, not an
	// error: the signed document is returned untouched. Only Force,
	// used after a data correction, produces a replacement.
	if existing != nil && existing.IsSigned() && !req.Force {
		resp := toDocumentResponse(existing)
		resp.AlreadySigned = true
		return &resp, nil
	}

	tmpl, err := s.templates.Get(def.DocumentType, def.TemplateVersion)
	if err != nil {
		return nil, err
	}
	mapped, err := s.mapper.Map(def.DocumentType, def.TemplateVersion, session.StepPayloads)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderPDF(ctx, tmpl, rendering.TemplateData{
		Title:           tmpl.Title,
		TemplateVersion: tmpl.Version,
		GeneratedAt:     time.Now().UTC().Format(signedAtLayout),
		Fields:          mapped.Fields,
	})
	if err != nil {
		return nil, err
	}
	hash := contentHash(pdf)

	// Identical re-render of the current unsigned document is a no-op
	if existing != nil && !existing.IsSigned() && existing.ContentHash == hash {
		resp := toDocumentResponse(existing)
		return &resp, nil
	}

	key := artifactKey(session.ID, stepID, hash, false)
	if err := s.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return nil, err
	}

	doc, err := document.NewGeneratedDocument(
		session.ID, stepID, def.DocumentType, def.TemplateVersion,
		hash, key, mapped.Unmapped,
	)
	if err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)

	if existing != nil {
		if err := existing.MarkSuperseded(doc.ID); err != nil {
			return nil, err
		}
		if err := s.documents.Save(ctx, existing); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, existing)
	}

	s.logger.Info("Document generated",
		zap.String("session_id", session.ID.String()),
		zap.String("step_id", string(stepID)),
		zap.String("document_id", doc.ID.String()),
		zap.Int("unmapped_fields", len(mapped.Unmapped)))

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// Sign embeds the employee signature into the document and finalizes
// it. A document accepts exactly one signature; a retried sign call
// gets the finalized document back rather than an error. Corrections
// go through Generate with Force, which produces a replacement to
// sign anew.
func (s *DocumentService) Sign(ctx context.Context, token string, documentID uuid.UUID, req SignRequest) (*DocumentResponse, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	doc, err := s.findOwned(ctx, session.ID, documentID)
	if err != nil {
		return nil, err
	}
	// Signing is single-use at the aggregate; a repeated sign call is
	// acknowledged with the finalized document, stored bytes untouched
	if doc.IsSigned() {
		resp := toDocumentResponse(doc)
		resp.AlreadySigned = true
		return &resp, nil
	}
	if doc.IsSuperseded() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"A superseded document cannot be signed; sign the current version")
	}

	attestation := req.AttestationText
	if attestation == "" {
		attestation = DefaultAttestation
	}
	record := document.NewSignatureRecord(
		session.EmployeeID, req.SignerName, req.IPAddress, req.Artifact, attestation)

	tmpl, err := s.templates.Get(doc.DocumentType, doc.TemplateVersion)
	if err != nil {
		return nil, err
	}
	mapped, err := s.mapper.Map(doc.DocumentType, doc.TemplateVersion, session.StepPayloads)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderPDF(ctx, tmpl, rendering.TemplateData{
		Title:           tmpl.Title,
		TemplateVersion: tmpl.Version,
		GeneratedAt:     doc.RenderedAt.UTC().Format(signedAtLayout),
		DocumentID:      doc.ID.String(),
		SourceHash:      doc.ContentHash,
		Fields:          mapped.Fields,
		Signature: &rendering.SignatureData{
			SignerName:      record.SignerName,
			SignedAt:        record.SignedAt.Format(signedAtLayout),
			IPAddress:       record.IPAddress,
			Artifact:        record.Artifact,
			AttestationText: record.AttestationText,
		},
	})
	if err != nil {
		return nil, err
	}
	finalHash := contentHash(pdf)

	finalKey := artifactKey(session.ID, doc.StepID, finalHash, true)
	if err := s.store.Put(ctx, finalKey, pdf, "application/pdf"); err != nil {
		return nil, err
	}

	if err := doc.Sign(record, finalHash, finalKey); err != nil {
		return nil, err
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)

	s.logger.Info("Document signed",
		zap.String("session_id", session.ID.String()),
		zap.String("document_id", doc.ID.String()))

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// Download returns a time-limited URL for the document's current
// artifact
func (s *DocumentService) Download(ctx context.Context, token string, documentID uuid.UUID) (*DownloadResponse, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	doc, err := s.findOwned(ctx, session.ID, documentID)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.store.PresignDownload(ctx, doc.StorageReference)
	if err != nil {
		return nil, err
	}
	return &DownloadResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// List returns every document generated for the session, superseded
// versions included, oldest first
func (s *DocumentService) List(ctx context.Context, token string) ([]DocumentResponse, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.FindBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}
	return responses, nil
}

// liveSession resolves a token and rejects expired sessions. Unlike
// the session service it does not persist the expiry flip; the next
// session access will.
func (s *DocumentService) liveSession(ctx context.Context, token string) (*onboarding.OnboardingSession, error) {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Status == onboarding.StatusExpired || session.IsExpired(time.Now()) {
		return nil, shared.ErrSessionExpired
	}
	return session, nil
}

// findOwned loads a document and verifies it belongs to the session.
// Documents of other sessions are reported as not found rather than
// forbidden, so tokens cannot probe for foreign document ids.
func (s *DocumentService) findOwned(ctx context.Context, sessionID, documentID uuid.UUID) (*document.GeneratedDocument, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.SessionID != sessionID {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func (s *DocumentService) renderPDF(ctx context.Context, tmpl *rendering.FormTemplate, data rendering.TemplateData) ([]byte, error) {
	html, err := s.engine.Render(string(tmpl.DocumentType), tmpl.Content, data)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeTemplateUnavailable,
			"Failed to render document template")
	}
	result, err := s.renderer.Render(ctx, &rendering.RenderRequest{
		HTML:  html,
		Title: tmpl.Title,
	})
	if err != nil {
		s.logger.Error("PDF rendering failed",
			zap.String("document_type", string(tmpl.DocumentType)),
			zap.Error(err))
		return nil, shared.NewDomainError("RENDER_FAILED", "Failed to render document PDF")
	}
	return result.PDFData, nil
}

func (s *DocumentService) publishEvents(ctx context.Context, doc *document.GeneratedDocument) {
	if s.eventPublisher == nil {
		return
	}
	events := doc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish document events", zap.Error(err))
	}
	doc.ClearDomainEvents()
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// artifactKey builds the storage key for a rendered artifact. Keys are
// content-addressed so a re-render with identical bytes lands on the
// same object.
func artifactKey(sessionID uuid.UUID, stepID onboarding.StepID, hash string, signed bool) string {
	suffix := ""
	if signed {
		suffix = "-signed"
	}
	return "sessions/" + sessionID.String() + "/" + string(stepID) + "-" + hash[:16] + suffix + ".pdf"
}
