package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

// logger for model conversion errors (silent failures are logged for debugging)
var modelLogger = zap.L().Named("persistence.models")

// SessionModel is the persistence model for the OnboardingSession
// aggregate root. Step payloads, prefills and the completion order are
// stored as JSONB: their shape varies per step and is only interpreted
// by the domain layer.
type SessionModel struct {
	AggregateModel
	Token              string     `gorm:"type:varchar(128);not null;uniqueIndex"`
	EmployeeID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	PropertyID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status             string     `gorm:"type:varchar(20);not null;index"`
	CurrentStepID      *string    `gorm:"type:varchar(64)"`
	CompletedStepsJSON string     `gorm:"column:completed_steps;type:jsonb;default:'[]'"`
	StepPayloadsJSON   string     `gorm:"column:step_payloads;type:jsonb;default:'{}'"`
	PrefillsJSON       string     `gorm:"column:prefills;type:jsonb;default:'{}'"`
	ExpiresAt          time.Time  `gorm:"not null;index"`
	CompletedAt        *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (SessionModel) TableName() string {
	return "onboarding_sessions"
}

// ToDomain converts the persistence model to a domain OnboardingSession
func (m *SessionModel) ToDomain() *onboarding.OnboardingSession {
	session := &onboarding.OnboardingSession{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		Token:            m.Token,
		EmployeeID:       m.EmployeeID,
		PropertyID:       m.PropertyID,
		Status:           onboarding.SessionStatus(m.Status),
		CompletedStepIDs: make([]onboarding.StepID, 0),
		StepPayloads:     make(map[onboarding.StepID]onboarding.Payload),
		Prefills:         make(map[onboarding.StepID]onboarding.Payload),
		ExpiresAt:        m.ExpiresAt,
		CompletedAt:      m.CompletedAt,
	}

	if m.CurrentStepID != nil {
		stepID := onboarding.StepID(*m.CurrentStepID)
		session.CurrentStepID = &stepID
	}

	if m.CompletedStepsJSON != "" && m.CompletedStepsJSON != "[]" {
		var steps []onboarding.StepID
		if err := json.Unmarshal([]byte(m.CompletedStepsJSON), &steps); err != nil {
			modelLogger.Warn("failed to parse completed_steps JSON",
				zap.String("session_id", m.ID.String()),
				zap.Error(err))
		} else {
			session.CompletedStepIDs = steps
		}
	}

	if m.StepPayloadsJSON != "" && m.StepPayloadsJSON != "{}" {
		var payloads map[onboarding.StepID]onboarding.Payload
		if err := json.Unmarshal([]byte(m.StepPayloadsJSON), &payloads); err != nil {
			modelLogger.Warn("failed to parse step_payloads JSON",
				zap.String("session_id", m.ID.String()),
				zap.Error(err))
		} else {
			session.StepPayloads = payloads
		}
	}

	if m.PrefillsJSON != "" && m.PrefillsJSON != "{}" {
		var prefills map[onboarding.StepID]onboarding.Payload
		if err := json.Unmarshal([]byte(m.PrefillsJSON), &prefills); err != nil {
			modelLogger.Warn("failed to parse prefills JSON",
				zap.String("session_id", m.ID.String()),
				zap.Error(err))
		} else {
			session.Prefills = prefills
		}
	}

	return session
}

// FromDomain populates the persistence model from a domain OnboardingSession
func (m *SessionModel) FromDomain(s *onboarding.OnboardingSession) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Token = s.Token
	m.EmployeeID = s.EmployeeID
	m.PropertyID = s.PropertyID
	m.Status = string(s.Status)
	m.ExpiresAt = s.ExpiresAt
	m.CompletedAt = s.CompletedAt

	m.CurrentStepID = nil
	if s.CurrentStepID != nil {
		id := string(*s.CurrentStepID)
		m.CurrentStepID = &id
	}

	m.CompletedStepsJSON = marshalOr(s.CompletedStepIDs, "[]")
	m.StepPayloadsJSON = marshalOr(s.StepPayloads, "{}")
	m.PrefillsJSON = marshalOr(s.Prefills, "{}")
}

// SessionModelFromDomain creates a persistence model from a domain session
func SessionModelFromDomain(s *onboarding.OnboardingSession) *SessionModel {
	m := &SessionModel{}
	m.FromDomain(s)
	return m
}

func marshalOr(v any, fallback string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}
