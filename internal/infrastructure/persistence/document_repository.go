package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgehr/backend/internal/domain/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
	"github.com/lodgehr/backend/internal/infrastructure/persistence/models"
)

// GormDocumentRepository implements document.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.GeneratedDocument, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySessionAndStep finds the current (non-superseded) document for
// a session step, newest render first in case of historical anomalies
func (r *GormDocumentRepository) FindBySessionAndStep(ctx context.Context, sessionID uuid.UUID, stepID onboarding.StepID) (*document.GeneratedDocument, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND step_id = ? AND superseded_by IS NULL", sessionID, string(stepID)).
		Order("rendered_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySession lists every document generated for a session, including
// superseded versions, oldest first for the audit trail
func (r *GormDocumentRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*document.GeneratedDocument, error) {
	var documentModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("rendered_at ASC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(documentModels), nil
}

// FindUnsignedForSession lists the current documents for a session
// that still await a signature
func (r *GormDocumentRepository) FindUnsignedForSession(ctx context.Context, sessionID uuid.UUID) ([]*document.GeneratedDocument, error) {
	var documentModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ? AND superseded_by IS NULL",
			sessionID, string(document.StatusUnsigned)).
		Order("rendered_at ASC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}
	return toDomainDocuments(documentModels), nil
}

// Save persists the document with optimistic locking
func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.GeneratedDocument) error {
	model := models.DocumentModelFromDomain(doc)

	if doc.GetVersion() == 1 {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.GetVersion()-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainDocuments(documentModels []models.DocumentModel) []*document.GeneratedDocument {
	docs := make([]*document.GeneratedDocument, len(documentModels))
	for i := range documentModels {
		docs[i] = documentModels[i].ToDomain()
	}
	return docs
}
