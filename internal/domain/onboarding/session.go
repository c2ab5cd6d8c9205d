package onboarding

import (
	"time"

	"github.com/google/uuid"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// SessionStatus represents the lifecycle state of an onboarding session
type SessionStatus string

// Session lifecycle states
const (
	StatusNotStarted    SessionStatus = "NOT_STARTED"
	StatusInProgress    SessionStatus = "IN_PROGRESS"
	StatusPendingReview SessionStatus = "PENDING_REVIEW"
	StatusCompleted     SessionStatus = "COMPLETED"
	StatusExpired       SessionStatus = "EXPIRED"
)

// IsTerminal returns true for states that accept no further writes
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// OnboardingSession is one employee's end-to-end onboarding instance,
// identified by an opaque invitation token. All mutation goes through
// the aggregate so the ordering invariants hold: CompletedStepIDs is
// always a topological prefix of the dependency graph, and an expired
// session rejects writes while staying readable for audit.
type OnboardingSession struct {
	shared.BaseAggregateRoot
	Token      string
	EmployeeID uuid.UUID
	PropertyID uuid.UUID
	Status     SessionStatus
	// CurrentStepID is the step the employee is working on; nil once
	// no further step is enterable
	CurrentStepID *StepID
	// CompletedStepIDs preserves completion order
	CompletedStepIDs []StepID
	StepPayloads     map[StepID]Payload
	// Prefills holds untrusted field suggestions (e.g. OCR output)
	// per step; they never mark completion and are re-validated on save
	Prefills    map[StepID]Payload
	ExpiresAt   time.Time
	CompletedAt *time.Time
}

// NewOnboardingSession creates a session on invitation
func NewOnboardingSession(employeeID, propertyID uuid.UUID, token string, ttl time.Duration) (*OnboardingSession, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EMPLOYEE", "Employee ID cannot be empty")
	}
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if token == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Session token cannot be empty")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_TTL", "Session lifetime must be positive")
	}

	session := &OnboardingSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Token:             token,
		EmployeeID:        employeeID,
		PropertyID:        propertyID,
		Status:            StatusNotStarted,
		CompletedStepIDs:  make([]StepID, 0),
		StepPayloads:      make(map[StepID]Payload),
		Prefills:          make(map[StepID]Payload),
		ExpiresAt:         time.Now().Add(ttl),
	}

	session.AddDomainEvent(NewSessionCreatedEvent(session))

	return session, nil
}

// IsExpired reports whether the session lifetime has passed
func (s *OnboardingSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CheckExpiry transitions a non-terminal session to Expired when its
// lifetime has passed. Returns true if the transition happened.
// Callers run this on every access so expiry needs no background job.
func (s *OnboardingSession) CheckExpiry(now time.Time) bool {
	if s.Status.IsTerminal() || !s.IsExpired(now) {
		return false
	}
	old := s.Status
	s.Status = StatusExpired
	s.Touch(now)
	s.IncrementVersion()
	s.AddDomainEvent(NewSessionExpiredEvent(s, old))
	return true
}

// HasCompleted returns true if the step has been completed
func (s *OnboardingSession) HasCompleted(stepID StepID) bool {
	for _, id := range s.CompletedStepIDs {
		if id == stepID {
			return true
		}
	}
	return false
}

// PayloadFor returns the captured payload for a step, if any
func (s *OnboardingSession) PayloadFor(stepID StepID) (Payload, bool) {
	p, ok := s.StepPayloads[stepID]
	return p, ok
}

// RecordStep stores a validated payload and marks the step completed.
// Re-saving an already-completed step is last-write-wins on the payload
// and leaves CompletedStepIDs untouched, so duplicate submissions can
// never double-count a step. The caller is responsible for dependency
// and validation checks before recording.
func (s *OnboardingSession) RecordStep(stepID StepID, payload Payload) error {
	if s.Status.IsTerminal() {
		if s.Status == StatusExpired {
			return shared.ErrSessionExpired
		}
		return shared.NewDomainError("INVALID_STATE", "Session is already completed")
	}
	if s.Status == StatusPendingReview {
		return shared.NewDomainError("INVALID_STATE", "Session is awaiting review; steps can no longer be edited")
	}

	now := time.Now()
	if s.Status == StatusNotStarted {
		s.Status = StatusInProgress
		s.AddDomainEvent(NewSessionStartedEvent(s))
	}

	alreadyCompleted := s.HasCompleted(stepID)
	s.StepPayloads[stepID] = payload
	if !alreadyCompleted {
		s.CompletedStepIDs = append(s.CompletedStepIDs, stepID)
	}
	delete(s.Prefills, stepID)
	s.Touch(now)
	s.IncrementVersion()

	s.AddDomainEvent(NewStepCompletedEvent(s, stepID, alreadyCompleted))

	return nil
}

// SetCurrentStep records the step the employee should see next; nil
// means no further step is enterable
func (s *OnboardingSession) SetCurrentStep(stepID *StepID) {
	s.CurrentStepID = stepID
	s.Touch(time.Now())
}

// SetPrefill stores untrusted field suggestions for a step. Suggestions
// never complete a step; they are validated like manual entry on save.
func (s *OnboardingSession) SetPrefill(stepID StepID, suggestions Payload) error {
	if s.Status.IsTerminal() {
		if s.Status == StatusExpired {
			return shared.ErrSessionExpired
		}
		return shared.NewDomainError("INVALID_STATE", "Session is already completed")
	}
	s.Prefills[stepID] = suggestions
	s.Touch(time.Now())
	s.IncrementVersion()
	return nil
}

// EnterReview transitions InProgress -> PendingReview once every
// required step is complete and every compliance document signed. The
// caller verifies both against the resolver and the document records;
// the aggregate enforces the state graph.
func (s *OnboardingSession) EnterReview() error {
	if s.Status == StatusPendingReview {
		return nil
	}
	if s.Status != StatusInProgress {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot enter review from status "+string(s.Status))
	}
	s.Status = StatusPendingReview
	s.CurrentStepID = nil
	s.Touch(time.Now())
	s.IncrementVersion()
	s.AddDomainEvent(NewSessionPendingReviewEvent(s))
	return nil
}

// Complete finalizes the session after all compliance documents are
// signed. Terminal: the session accepts no further writes.
func (s *OnboardingSession) Complete() error {
	if s.Status != StatusPendingReview {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status "+string(s.Status))
	}
	now := time.Now()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.Touch(now)
	s.IncrementVersion()
	s.AddDomainEvent(NewSessionCompletedEvent(s))
	return nil
}
