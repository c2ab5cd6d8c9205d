package document

import (
	"context"

	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/onboarding"
)

// DocumentRepository defines the document persistence interface
type DocumentRepository interface {
	// FindByID finds a document by ID
	FindByID(ctx context.Context, id uuid.UUID) (*GeneratedDocument, error)

	// FindBySessionAndStep finds the latest non-superseded document for a session step
	FindBySessionAndStep(ctx context.Context, sessionID uuid.UUID, stepID onboarding.StepID) (*GeneratedDocument, error)

	// FindBySession lists every document generated for a session, superseded included
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*GeneratedDocument, error)

	// FindUnsignedForSession lists non-superseded documents for a session that await a signature
	FindUnsignedForSession(ctx context.Context, sessionID uuid.UUID) ([]*GeneratedDocument, error)

	// Save persists a document
	Save(ctx context.Context, doc *GeneratedDocument) error
}
