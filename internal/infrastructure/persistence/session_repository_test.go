package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// setupSessionTestDB creates an in-memory SQLite database for testing
func setupSessionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE onboarding_sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			token TEXT NOT NULL UNIQUE,
			employee_id TEXT NOT NULL,
			property_id TEXT NOT NULL,
			status TEXT NOT NULL,
			current_step_id TEXT,
			completed_steps TEXT DEFAULT '[]',
			step_payloads TEXT DEFAULT '{}',
			prefills TEXT DEFAULT '{}',
			expires_at DATETIME NOT NULL,
			completed_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

func newSavedSession(t *testing.T, repo *GormSessionRepository) *onboarding.OnboardingSession {
	t.Helper()
	session, err := onboarding.NewOnboardingSession(uuid.New(), uuid.New(), "tok-"+uuid.NewString(), 14*24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), session))
	return session
}

func TestGormSessionRepository_SaveAndFind(t *testing.T) {
	repo := NewGormSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()

	session := newSavedSession(t, repo)
	require.NoError(t, session.RecordStep(onboarding.StepPersonalInfo, onboarding.Payload{
		"first_name": "Maria",
		"last_name":  "Santos",
	}))
	require.NoError(t, repo.Save(ctx, session))

	t.Run("find by id restores full state", func(t *testing.T) {
		found, err := repo.FindByID(ctx, session.ID)
		require.NoError(t, err)

		assert.Equal(t, session.Token, found.Token)
		assert.Equal(t, onboarding.StatusInProgress, found.Status)
		assert.Equal(t, []onboarding.StepID{onboarding.StepPersonalInfo}, found.CompletedStepIDs)
		payload, ok := found.PayloadFor(onboarding.StepPersonalInfo)
		require.True(t, ok)
		assert.Equal(t, "Maria", payload["first_name"])
		assert.Equal(t, session.GetVersion(), found.GetVersion())
	})

	t.Run("find by token", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.ID, found.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.FindByToken(ctx, "tok-unknown")
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("empty token never matches", func(t *testing.T) {
		_, err := repo.FindByToken(ctx, "")
		assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	})

	t.Run("find by employee newest first", func(t *testing.T) {
		sessions, err := repo.FindByEmployee(ctx, session.EmployeeID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, session.ID, sessions[0].ID)
	})
}

func TestGormSessionRepository_OptimisticLocking(t *testing.T) {
	repo := NewGormSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()

	session := newSavedSession(t, repo)

	// Two copies of the same session, as two concurrent requests would load it
	first, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)

	require.NoError(t, first.RecordStep(onboarding.StepPersonalInfo, onboarding.Payload{"first_name": "A"}))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.RecordStep(onboarding.StepPersonalInfo, onboarding.Payload{"first_name": "B"}))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// The first writer's payload survived
	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	payload, ok := found.PayloadFor(onboarding.StepPersonalInfo)
	require.True(t, ok)
	assert.Equal(t, "A", payload["first_name"])
}

func TestGormSessionRepository_SaveClearsCurrentStep(t *testing.T) {
	repo := NewGormSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()

	session := newSavedSession(t, repo)
	require.NoError(t, session.RecordStep(onboarding.StepPersonalInfo, onboarding.Payload{}))
	next := onboarding.StepI9Section1
	session.SetCurrentStep(&next)
	require.NoError(t, repo.Save(ctx, session))

	require.NoError(t, session.EnterReview())
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusPendingReview, found.Status)
	assert.Nil(t, found.CurrentStepID)
}

func TestGormSessionRepository_DuplicateToken(t *testing.T) {
	repo := NewGormSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()

	session := newSavedSession(t, repo)
	dup, err := onboarding.NewOnboardingSession(uuid.New(), uuid.New(), session.Token, time.Hour)
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, dup))
}
