package onboarding

import (
	"time"

	"github.com/google/uuid"

	"github.com/lodgehr/backend/internal/domain/onboarding"
)

// CreateSessionRequest starts onboarding for a hired employee
type CreateSessionRequest struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required"`
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
}

// CreateSessionResponse carries the invitation token exactly once; it
// is never returned by any other operation
type CreateSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Step availability as presented to the employee UI
const (
	StepStateCompleted     = "completed"
	StepStateAvailable     = "available"
	StepStateLocked        = "locked"
	StepStateNotApplicable = "not_applicable"
)

// StepStatusResponse describes one catalog step relative to a session
type StepStatusResponse struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	EstimatedMinutes    int      `json:"estimated_minutes"`
	Required            bool     `json:"required"`
	ComplianceCritical  bool     `json:"compliance_critical"`
	State               string   `json:"state"`
	MissingDependencies []string `json:"missing_dependencies,omitempty"`
}

// SessionResponse is the full session view for the employee UI
type SessionResponse struct {
	SessionID      uuid.UUID            `json:"session_id"`
	Status         string               `json:"status"`
	CurrentStepID  *string              `json:"current_step_id"`
	CompletedSteps []string             `json:"completed_steps"`
	Steps          []StepStatusResponse `json:"steps"`
	Prefill        onboarding.Payload   `json:"prefill,omitempty"`
	ExpiresAt      time.Time            `json:"expires_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

// SaveStepRequest carries the payload captured for one step
type SaveStepRequest struct {
	Payload map[string]any `json:"payload" binding:"required"`
}

// SaveStepResponse acknowledges a step save. Duplicate is true when an
// identical payload was already applied and the save was acknowledged
// without reapplying it.
type SaveStepResponse struct {
	Duplicate bool            `json:"duplicate"`
	Session   SessionResponse `json:"session"`
}

// NextStepResponse points the UI at the next enterable step; Done means
// the guided sequence has nothing left to offer
type NextStepResponse struct {
	Done bool                `json:"done"`
	Step *StepStatusResponse `json:"step,omitempty"`
}

// PrefillRequest stores field suggestions for a step ahead of entry
type PrefillRequest struct {
	Suggestions map[string]any `json:"suggestions" binding:"required"`
}
