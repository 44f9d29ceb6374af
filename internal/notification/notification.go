package notification

import (
	"context"
	"log/slog"
)

const (
	// KindBusinessPending is emitted when a newly onboarded business awaits admin approval.
	KindBusinessPending = "business_pending"
	// KindBusinessActivated is emitted when an admin approves a business.
	KindBusinessActivated = "business_activated"
	// KindBusinessDeactivated is emitted when an admin suspends a business.
	KindBusinessDeactivated = "business_deactivated"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
