package onboarding

import (
	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSession = "OnboardingSession"

// Event type constants for OnboardingSession
const (
	EventTypeSessionCreated       = "SessionCreated"
	EventTypeSessionStarted       = "SessionStarted"
	EventTypeStepCompleted        = "StepCompleted"
	EventTypeSessionPendingReview = "SessionPendingReview"
	EventTypeSessionCompleted     = "SessionCompleted"
	EventTypeSessionExpired       = "SessionExpired"
)

// SessionCreatedEvent is published when an invitation creates a session
type SessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID `json:"session_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	PropertyID uuid.UUID `json:"property_id"`
}

// NewSessionCreatedEvent creates a new SessionCreatedEvent
func NewSessionCreatedEvent(s *OnboardingSession) *SessionCreatedEvent {
	return &SessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCreated, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
		EmployeeID:      s.EmployeeID,
		PropertyID:      s.PropertyID,
	}
}

// SessionStartedEvent is published on the first successful step save
type SessionStartedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID `json:"session_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
}

// NewSessionStartedEvent creates a new SessionStartedEvent
func NewSessionStartedEvent(s *OnboardingSession) *SessionStartedEvent {
	return &SessionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionStarted, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
		EmployeeID:      s.EmployeeID,
	}
}

// StepCompletedEvent is published when a step payload is recorded.
// Resave is true when an already-completed step was overwritten.
type StepCompletedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
	StepID    StepID    `json:"step_id"`
	Resave    bool      `json:"resave"`
}

// NewStepCompletedEvent creates a new StepCompletedEvent
func NewStepCompletedEvent(s *OnboardingSession, stepID StepID, resave bool) *StepCompletedEvent {
	return &StepCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStepCompleted, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
		StepID:          stepID,
		Resave:          resave,
	}
}

// SessionPendingReviewEvent is published when all required steps are done
type SessionPendingReviewEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
}

// NewSessionPendingReviewEvent creates a new SessionPendingReviewEvent
func NewSessionPendingReviewEvent(s *OnboardingSession) *SessionPendingReviewEvent {
	return &SessionPendingReviewEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionPendingReview, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
	}
}

// SessionCompletedEvent is published on final submission; the email
// notifier subscribes to it
type SessionCompletedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID `json:"session_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	PropertyID uuid.UUID `json:"property_id"`
}

// NewSessionCompletedEvent creates a new SessionCompletedEvent
func NewSessionCompletedEvent(s *OnboardingSession) *SessionCompletedEvent {
	return &SessionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCompleted, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
		EmployeeID:      s.EmployeeID,
		PropertyID:      s.PropertyID,
	}
}

// SessionExpiredEvent is published when expiry is detected on access
type SessionExpiredEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID     `json:"session_id"`
	PreviousStatus SessionStatus `json:"previous_status"`
}

// NewSessionExpiredEvent creates a new SessionExpiredEvent
func NewSessionExpiredEvent(s *OnboardingSession, previous SessionStatus) *SessionExpiredEvent {
	return &SessionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionExpired, AggregateTypeSession, s.ID),
		SessionID:       s.ID,
		PreviousStatus:  previous,
	}
}
