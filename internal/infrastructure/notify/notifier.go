// Package notify delivers HR-facing notifications for onboarding
// milestones.
package notify

import (
	"context"

	"go.uber.org/zap"

	infraconfig "github.com/lodgehr/backend/internal/infrastructure/config"
)

// Message is a single outbound notification
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Notifier sends notifications to HR staff. Delivery is best-effort;
// failures are surfaced so the subscriber can log them, but they never
// block the workflow.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes notifications to the log instead of sending them.
// It stands in for a real mail integration in development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info("Notification sent",
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject))
	return nil
}

// NopNotifier drops every message; used when notifications are disabled
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, msg Message) error { return nil }

// NewNotifier builds the notifier the configuration asks for
func NewNotifier(cfg infraconfig.NotifyConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NopNotifier{}
	}
	return NewLogNotifier(logger)
}
