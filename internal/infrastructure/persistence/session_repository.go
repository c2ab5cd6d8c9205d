package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
	"github.com/lodgehr/backend/internal/infrastructure/persistence/models"
)

// GormSessionRepository implements onboarding.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID finds a session by its ID
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*onboarding.OnboardingSession, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByToken finds a session by its invitation token
func (r *GormSessionRepository) FindByToken(ctx context.Context, token string) (*onboarding.OnboardingSession, error) {
	if token == "" {
		return nil, shared.ErrSessionNotFound
	}
	var model models.SessionModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmployee finds every session for an employee, newest first
func (r *GormSessionRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*onboarding.OnboardingSession, error) {
	var sessionModels []models.SessionModel
	if err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&sessionModels).Error; err != nil {
		return nil, err
	}

	sessions := make([]*onboarding.OnboardingSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = sessionModels[i].ToDomain()
	}
	return sessions, nil
}

// Save persists the session with optimistic locking. A fresh aggregate
// (version 1, never mutated) is inserted; any later save compares
// against the previous version so concurrent writers of the same
// session cannot both succeed.
func (r *GormSessionRepository) Save(ctx context.Context, session *onboarding.OnboardingSession) error {
	model := models.SessionModelFromDomain(session)

	if session.GetVersion() == 1 {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ? AND version = ?", session.ID, session.GetVersion()-1).
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
