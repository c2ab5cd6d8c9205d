package onboarding

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lodgehr/backend/internal/domain/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// fakeSessionRepository is a stateful in-memory SessionRepository that
// enforces the same one-increment-per-save optimistic guard as the
// GORM implementation.
type fakeSessionRepository struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*onboarding.OnboardingSession
	byToken  map[string]uuid.UUID
	versions map[uuid.UUID]int
	saveErr  error
	// failNextSave injects a single concurrency conflict
	failNextSave bool
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{
		byID:     make(map[uuid.UUID]*onboarding.OnboardingSession),
		byToken:  make(map[string]uuid.UUID),
		versions: make(map[uuid.UUID]int),
	}
}

func (r *fakeSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*onboarding.OnboardingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (r *fakeSessionRepository) FindByToken(ctx context.Context, token string) (*onboarding.OnboardingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byToken[token]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return cloneSession(r.byID[id]), nil
}

// cloneSession mimics a database read: callers get their own copy, so
// a failed save never leaks mutations into the stored state
func cloneSession(s *onboarding.OnboardingSession) *onboarding.OnboardingSession {
	c := *s
	c.CompletedStepIDs = append([]onboarding.StepID(nil), s.CompletedStepIDs...)
	c.StepPayloads = make(map[onboarding.StepID]onboarding.Payload, len(s.StepPayloads))
	for k, v := range s.StepPayloads {
		c.StepPayloads[k] = v
	}
	c.Prefills = make(map[onboarding.StepID]onboarding.Payload, len(s.Prefills))
	for k, v := range s.Prefills {
		c.Prefills[k] = v
	}
	if s.CurrentStepID != nil {
		id := *s.CurrentStepID
		c.CurrentStepID = &id
	}
	return &c
}

func (r *fakeSessionRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*onboarding.OnboardingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*onboarding.OnboardingSession
	for _, s := range r.byID {
		if s.EmployeeID == employeeID {
			result = append(result, cloneSession(s))
		}
	}
	return result, nil
}

func (r *fakeSessionRepository) Save(ctx context.Context, session *onboarding.OnboardingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.failNextSave {
		r.failNextSave = false
		return shared.ErrConcurrencyConflict
	}

	stored, exists := r.versions[session.ID]
	if !exists {
		if session.GetVersion() != 1 {
			return shared.ErrConcurrencyConflict
		}
		if _, dup := r.byToken[session.Token]; dup {
			return shared.ErrAlreadyExists
		}
	} else if session.GetVersion() != stored+1 {
		return shared.ErrConcurrencyConflict
	}

	r.byID[session.ID] = session
	r.byToken[session.Token] = session.ID
	r.versions[session.ID] = session.GetVersion()
	return nil
}

// fakeDocumentRepository keeps documents in insertion order
type fakeDocumentRepository struct {
	mu   sync.Mutex
	docs []*document.GeneratedDocument
}

func newFakeDocumentRepository() *fakeDocumentRepository {
	return &fakeDocumentRepository{}
}

func (r *fakeDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDocumentRepository) FindBySessionAndStep(ctx context.Context, sessionID uuid.UUID, stepID onboarding.StepID) (*document.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.docs) - 1; i >= 0; i-- {
		d := r.docs[i]
		if d.SessionID == sessionID && d.StepID == stepID && !d.IsSuperseded() {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDocumentRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*document.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*document.GeneratedDocument
	for _, d := range r.docs {
		if d.SessionID == sessionID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *fakeDocumentRepository) FindUnsignedForSession(ctx context.Context, sessionID uuid.UUID) ([]*document.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*document.GeneratedDocument
	for _, d := range r.docs {
		if d.SessionID == sessionID && !d.IsSigned() && !d.IsSuperseded() {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *fakeDocumentRepository) Save(ctx context.Context, doc *document.GeneratedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID == doc.ID {
			r.docs[i] = doc
			return nil
		}
	}
	r.docs = append(r.docs, doc)
	return nil
}

// mockEventPublisher collects published events for assertions
type mockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *mockEventPublisher) eventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []shared.DomainEvent
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}
