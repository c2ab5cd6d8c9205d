package onboarding

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository persists onboarding sessions
type SessionRepository interface {
	// FindByID finds a session by its internal id
	FindByID(ctx context.Context, id uuid.UUID) (*OnboardingSession, error)
	// FindByToken finds a session by its opaque invitation token.
	// Returns shared.ErrSessionNotFound for tokens that never existed.
	FindByToken(ctx context.Context, token string) (*OnboardingSession, error)
	// FindByEmployee lists sessions for an employee, newest first
	FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*OnboardingSession, error)
	// Save inserts or updates a session under optimistic locking;
	// a stale version yields shared.ErrConcurrencyConflict.
	Save(ctx context.Context, session *OnboardingSession) error
}
