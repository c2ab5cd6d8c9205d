package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	infraconfig "github.com/lodgehr/backend/internal/infrastructure/config"
)

type captureNotifier struct {
	sent []Message
}

func (n *captureNotifier) Send(ctx context.Context, msg Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func completedSession(t *testing.T) *onboarding.OnboardingSession {
	t.Helper()
	session, err := onboarding.NewOnboardingSession(uuid.New(), uuid.New(), "tok-1", 14*24*time.Hour)
	require.NoError(t, err)
	return session
}

func TestSessionCompletedHandlerNotifiesHR(t *testing.T) {
	notifier := &captureNotifier{}
	cfg := infraconfig.NotifyConfig{
		Enabled:     true,
		FromAddress: "onboarding@lodgehr.example",
		HRAddress:   "hr@lodgehr.example",
	}
	handler := NewSessionCompletedHandler(notifier, cfg, zap.NewNop())

	session := completedSession(t)
	event := onboarding.NewSessionCompletedEvent(session)

	require.NoError(t, handler.Handle(context.Background(), event))
	require.Len(t, notifier.sent, 1)

	msg := notifier.sent[0]
	assert.Equal(t, "hr@lodgehr.example", msg.To)
	assert.Equal(t, "onboarding@lodgehr.example", msg.From)
	assert.Contains(t, msg.Body, session.ID.String())
}

func TestSessionCompletedHandlerRejectsWrongEvent(t *testing.T) {
	handler := NewSessionCompletedHandler(&captureNotifier{}, infraconfig.NotifyConfig{}, zap.NewNop())

	session := completedSession(t)
	err := handler.Handle(context.Background(), onboarding.NewSessionStartedEvent(session))
	require.Error(t, err)
}

func TestNewNotifierDisabled(t *testing.T) {
	n := NewNotifier(infraconfig.NotifyConfig{Enabled: false}, zap.NewNop())
	assert.IsType(t, NopNotifier{}, n)
	assert.NoError(t, n.Send(context.Background(), Message{}))
}
