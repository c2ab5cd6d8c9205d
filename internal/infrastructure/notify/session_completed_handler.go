package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
	infraconfig "github.com/lodgehr/backend/internal/infrastructure/config"
)

var _ shared.EventHandler = (*SessionCompletedHandler)(nil)

// SessionCompletedHandler emails HR when a new hire finishes
// onboarding. It subscribes to SessionCompleted on the event bus.
type SessionCompletedHandler struct {
	notifier Notifier
	cfg      infraconfig.NotifyConfig
	logger   *zap.Logger
}

func NewSessionCompletedHandler(notifier Notifier, cfg infraconfig.NotifyConfig, logger *zap.Logger) *SessionCompletedHandler {
	return &SessionCompletedHandler{notifier: notifier, cfg: cfg, logger: logger}
}

func (h *SessionCompletedHandler) EventTypes() []string {
	return []string{onboarding.EventTypeSessionCompleted}
}

func (h *SessionCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*onboarding.SessionCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	msg := Message{
		To:      h.cfg.HRAddress,
		From:    h.cfg.FromAddress,
		Subject: "Onboarding completed and ready for review",
		Body: fmt.Sprintf(
			"Employee %s at property %s has completed all onboarding steps.\n"+
				"Session %s is ready for HR verification.\n",
			completed.EmployeeID, completed.PropertyID, completed.SessionID),
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Warn("Failed to send completion notification",
			zap.String("session_id", completed.SessionID.String()),
			zap.Error(err))
		return err
	}
	return nil
}
