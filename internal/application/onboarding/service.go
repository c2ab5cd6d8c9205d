package onboarding

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/document"
	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
	"github.com/lodgehr/backend/internal/domain/validation"
)

const (
	// DefaultSessionTTL bounds how long an invitation stays usable
	DefaultSessionTTL = 14 * 24 * time.Hour

	// DefaultTokenBytes is the entropy of an invitation token
	DefaultTokenBytes = 32

	saveDedupKeyPrefix = "save:"
)

// ServiceConfig carries the tunables the session service needs. Zero
// values fall back to the defaults above.
type ServiceConfig struct {
	SessionTTL   time.Duration
	TokenBytes   int
	SaveDedupTTL time.Duration
}

// SessionService drives the onboarding workflow: invitation issuance,
// step saves with validation and dependency checks, progression, and
// final submission.
type SessionService struct {
	sessions       onboarding.SessionRepository
	documents      document.DocumentRepository
	resolver       *onboarding.Resolver
	validator      *validation.Engine
	dedupe         shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	cfg            ServiceConfig
}

func NewSessionService(
	sessions onboarding.SessionRepository,
	documents document.DocumentRepository,
	resolver *onboarding.Resolver,
	validator *validation.Engine,
	dedupe shared.IdempotencyStore,
	logger *zap.Logger,
	cfg ServiceConfig,
) *SessionService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.TokenBytes <= 0 {
		cfg.TokenBytes = DefaultTokenBytes
	}
	if cfg.SaveDedupTTL <= 0 {
		cfg.SaveDedupTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &SessionService{
		sessions:  sessions,
		documents: documents,
		resolver:  resolver,
		validator: validator,
		dedupe:    dedupe,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateSession issues a new invitation for an employee. The returned
// token is shown exactly once; only its holder can access the session.
// An employee carries at most one live session; a lost invitation is
// reissued only after the old session expires.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	existing, err := s.sessions.FindByEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, prior := range existing {
		if !prior.Status.IsTerminal() && !prior.IsExpired(now) {
			return nil, shared.NewDomainErrorWithDetails(shared.ErrAlreadyExists.Code,
				"Employee already has an active onboarding session",
				map[string]any{"session_id": prior.ID.String()})
		}
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session, err := onboarding.NewOnboardingSession(req.EmployeeID, req.PropertyID, token, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, session)

	s.logger.Info("Onboarding session created",
		zap.String("session_id", session.ID.String()),
		zap.String("employee_id", req.EmployeeID.String()))

	return &CreateSessionResponse{
		SessionID: session.ID,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// LoadSession resolves an invitation token into the full session view.
// Expiry is detected lazily here: a session past its deadline flips to
// Expired on first access and the caller sees ErrSessionExpired.
func (s *SessionService) LoadSession(ctx context.Context, token string) (*SessionResponse, error) {
	session, err := s.loadLive(ctx, token)
	if err != nil {
		return nil, err
	}
	resp := s.sessionResponse(session)
	return &resp, nil
}

// SaveStep validates and records a step payload. Identical retried
// payloads are acknowledged without being reapplied; a subsequent save
// with different data is last-write-wins. Once every required step is
// complete and every compliance document signed, the session moves to
// PendingReview on its own; until then it stays editable.
func (s *SessionService) SaveStep(ctx context.Context, token string, stepID onboarding.StepID, req SaveStepRequest) (*SaveStepResponse, error) {
	session, err := s.loadLive(ctx, token)
	if err != nil {
		return nil, err
	}

	def, ok := s.resolver.Registry().Get(stepID)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeStepNotFound,
			fmt.Sprintf("Unknown step %q", stepID))
	}

	if err := s.resolver.CanEnter(stepID, session.CompletedStepIDs, session.StepPayloads); err != nil {
		return nil, err
	}

	payload := onboarding.Payload(req.Payload)
	if def.RuleSet != "" {
		result, err := s.validator.Validate(def.RuleSet, validation.Payload(payload))
		if err != nil {
			return nil, err
		}
		if !result.Valid() {
			return nil, shared.NewDomainErrorWithDetails(shared.CodeValidationFailed,
				"Step payload failed validation",
				map[string]any{
					"field_errors":    result.FieldErrors,
					"rule_violations": result.RuleViolations,
				})
		}
	}

	dedupeKey, err := s.dedupeKey(session.ID.String(), string(stepID), payload)
	if err == nil {
		processed, derr := s.dedupe.IsProcessed(ctx, dedupeKey)
		if derr != nil {
			// Dedup is best-effort; a store outage degrades to
			// last-write-wins rather than blocking the save
			s.logger.Warn("Idempotency check failed", zap.Error(derr))
		} else if processed && session.HasCompleted(stepID) {
			resp := s.sessionResponse(session)
			return &SaveStepResponse{Duplicate: true, Session: resp}, nil
		}
	}

	apply := func(sess *onboarding.OnboardingSession) error {
		if err := sess.RecordStep(stepID, payload); err != nil {
			return err
		}
		sess.SetCurrentStep(s.nextStepID(sess))
		return nil
	}
	session, err = s.mutate(ctx, token, session, apply)
	if err != nil {
		return nil, err
	}

	// Each transition saves separately so the optimistic version guard
	// always advances by exactly one. Review is gated on the documents
	// too: with an unsigned compliance document outstanding the session
	// stays InProgress and optional steps remain editable.
	if session.Status == onboarding.StatusInProgress &&
		len(s.resolver.OutstandingRequired(session.CompletedStepIDs, session.StepPayloads)) == 0 {
		pending, perr := s.pendingDocuments(ctx, session)
		if perr != nil {
			return nil, perr
		}
		if len(pending) == 0 {
			session, err = s.mutate(ctx, token, session, func(sess *onboarding.OnboardingSession) error {
				return sess.EnterReview()
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if dedupeKey != "" {
		if _, derr := s.dedupe.MarkProcessed(ctx, dedupeKey, s.cfg.SaveDedupTTL); derr != nil {
			s.logger.Warn("Failed to record idempotency key", zap.Error(derr))
		}
	}

	resp := s.sessionResponse(session)
	return &SaveStepResponse{Session: resp}, nil
}

// NextStep returns the step the employee should do next
func (s *SessionService) NextStep(ctx context.Context, token string) (*NextStepResponse, error) {
	session, err := s.loadLive(ctx, token)
	if err != nil {
		return nil, err
	}

	def := s.resolver.NextStep(session.CompletedStepIDs, session.StepPayloads)
	if def == nil {
		return &NextStepResponse{Done: true}, nil
	}
	status := s.stepStatus(session, def)
	return &NextStepResponse{Step: &status}, nil
}

// Prefill stores untrusted field suggestions for a step. They are
// surfaced to the UI for the employee to confirm and are validated
// like manual entry when the step is saved.
func (s *SessionService) Prefill(ctx context.Context, token string, stepID onboarding.StepID, req PrefillRequest) (*SessionResponse, error) {
	session, err := s.loadLive(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, ok := s.resolver.Registry().Get(stepID); !ok {
		return nil, shared.NewDomainError(shared.CodeStepNotFound,
			fmt.Sprintf("Unknown step %q", stepID))
	}

	session, err = s.mutate(ctx, token, session, func(sess *onboarding.OnboardingSession) error {
		return sess.SetPrefill(stepID, onboarding.Payload(req.Suggestions))
	})
	if err != nil {
		return nil, err
	}

	resp := s.sessionResponse(session)
	return &resp, nil
}

// Submit finalizes the session. It refuses while a required step is
// outstanding or any compliance document is missing or unsigned, and
// names the blocking steps either way.
func (s *SessionService) Submit(ctx context.Context, token string) (*SessionResponse, error) {
	session, err := s.loadLive(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Status != onboarding.StatusInProgress && session.Status != onboarding.StatusPendingReview {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Session cannot be submitted from status "+string(session.Status))
	}

	if outstanding := s.resolver.OutstandingRequired(session.CompletedStepIDs, session.StepPayloads); len(outstanding) > 0 {
		ids := make([]string, len(outstanding))
		for i, id := range outstanding {
			ids[i] = string(id)
		}
		return nil, shared.NewDomainErrorWithDetails("INVALID_STATE",
			"All required steps must be completed before submission",
			map[string]any{"outstanding_steps": ids})
	}

	pending, err := s.pendingDocuments(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, shared.NewDomainErrorWithDetails("DOCUMENTS_NOT_SIGNED",
			"All compliance documents must be signed before submission",
			map[string]any{"pending_steps": pending})
	}

	if session.Status == onboarding.StatusInProgress {
		session, err = s.mutate(ctx, token, session, func(sess *onboarding.OnboardingSession) error {
			return sess.EnterReview()
		})
		if err != nil {
			return nil, err
		}
	}

	session, err = s.mutate(ctx, token, session, func(sess *onboarding.OnboardingSession) error {
		return sess.Complete()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Onboarding session completed",
		zap.String("session_id", session.ID.String()))

	resp := s.sessionResponse(session)
	return &resp, nil
}

// pendingDocuments lists the applicable compliance steps whose document
// is missing, superseded without a signed replacement, or not yet
// signed. An empty result is the precondition for PendingReview.
func (s *SessionService) pendingDocuments(ctx context.Context, session *onboarding.OnboardingSession) ([]string, error) {
	unsigned, err := s.documents.FindUnsignedForSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	unsignedSteps := make(map[onboarding.StepID]bool, len(unsigned))
	for _, doc := range unsigned {
		unsignedSteps[doc.StepID] = true
	}

	var pending []string
	for _, def := range s.resolver.ComplianceSteps(session.CompletedStepIDs, session.StepPayloads) {
		if unsignedSteps[def.ID] {
			pending = append(pending, string(def.ID))
			continue
		}
		// The current version exists and is not in the unsigned set,
		// so it is signed; absence means nothing was generated yet
		if _, err := s.documents.FindBySessionAndStep(ctx, session.ID, def.ID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				pending = append(pending, string(def.ID))
				continue
			}
			return nil, err
		}
	}
	return pending, nil
}

// loadLive resolves a token and applies lazy expiry. The expiry flip is
// persisted best-effort; the caller still sees ErrSessionExpired even
// when the save lost a race.
func (s *SessionService) loadLive(ctx context.Context, token string) (*onboarding.OnboardingSession, error) {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.CheckExpiry(time.Now()) {
		if err := s.sessions.Save(ctx, session); err != nil && !errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("Failed to persist session expiry",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
		s.publishEvents(ctx, session)
	}
	if session.Status == onboarding.StatusExpired {
		return nil, shared.ErrSessionExpired
	}
	return session, nil
}

// mutate applies a command and saves, retrying once on a concurrent
// modification by reloading and reapplying against fresh state
func (s *SessionService) mutate(
	ctx context.Context,
	token string,
	session *onboarding.OnboardingSession,
	apply func(*onboarding.OnboardingSession) error,
) (*onboarding.OnboardingSession, error) {
	if err := apply(session); err != nil {
		return nil, err
	}
	err := s.sessions.Save(ctx, session)
	if err == nil {
		s.publishEvents(ctx, session)
		return session, nil
	}
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return nil, err
	}

	fresh, ferr := s.loadLive(ctx, token)
	if ferr != nil {
		return nil, ferr
	}
	if err := apply(fresh); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, fresh); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, fresh)
	return fresh, nil
}

func (s *SessionService) publishEvents(ctx context.Context, session *onboarding.OnboardingSession) {
	if s.eventPublisher == nil {
		return
	}
	events := session.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish session events", zap.Error(err))
	}
	session.ClearDomainEvents()
}

func (s *SessionService) newToken() (string, error) {
	buf := make([]byte, s.cfg.TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// dedupeKey fingerprints a save by session, step, and payload content.
// Map key order does not affect the fingerprint: json.Marshal emits
// object keys sorted.
func (s *SessionService) dedupeKey(sessionID, stepID string, payload onboarding.Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return saveDedupKeyPrefix + sessionID + ":" + stepID + ":" + hex.EncodeToString(sum[:]), nil
}

func (s *SessionService) nextStepID(session *onboarding.OnboardingSession) *onboarding.StepID {
	def := s.resolver.NextStep(session.CompletedStepIDs, session.StepPayloads)
	if def == nil {
		return nil
	}
	id := def.ID
	return &id
}

func (s *SessionService) sessionResponse(session *onboarding.OnboardingSession) SessionResponse {
	defs := s.resolver.Registry().All()
	steps := make([]StepStatusResponse, 0, len(defs))
	for i := range defs {
		steps = append(steps, s.stepStatus(session, &defs[i]))
	}

	completed := make([]string, len(session.CompletedStepIDs))
	for i, id := range session.CompletedStepIDs {
		completed[i] = string(id)
	}

	var currentStep *string
	var prefill onboarding.Payload
	if session.CurrentStepID != nil {
		id := string(*session.CurrentStepID)
		currentStep = &id
		if p, ok := session.Prefills[*session.CurrentStepID]; ok {
			prefill = p
		}
	}

	return SessionResponse{
		SessionID:      session.ID,
		Status:         string(session.Status),
		CurrentStepID:  currentStep,
		CompletedSteps: completed,
		Steps:          steps,
		Prefill:        prefill,
		ExpiresAt:      session.ExpiresAt,
		CompletedAt:    session.CompletedAt,
	}
}

func (s *SessionService) stepStatus(session *onboarding.OnboardingSession, def *onboarding.StepDefinition) StepStatusResponse {
	status := StepStatusResponse{
		ID:                 string(def.ID),
		Title:              def.Title,
		EstimatedMinutes:   def.EstimatedMinutes,
		Required:           def.Required,
		ComplianceCritical: def.ComplianceCritical,
	}

	switch {
	case !def.Applicable(session.StepPayloads):
		status.State = StepStateNotApplicable
	case session.HasCompleted(def.ID):
		status.State = StepStateCompleted
	default:
		missing := s.resolver.MissingDependencies(def.ID, session.CompletedStepIDs)
		if len(missing) == 0 {
			status.State = StepStateAvailable
		} else {
			status.State = StepStateLocked
			ids := make([]string, len(missing))
			for i, id := range missing {
				ids[i] = string(id)
			}
			sort.Strings(ids)
			status.MissingDependencies = ids
		}
	}
	return status
}
