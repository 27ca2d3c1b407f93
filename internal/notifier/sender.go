// Package notifier delivers templated notifications for order lifecycle
// events. Delivery is best-effort: a failed message is logged and dropped,
// never retried into the ordering flow.
package notifier

import (
	"context"
	"log/slog"

	"github.com/abgdnv/storefront/pkg/messaging/events"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      events.Recipient
	Subject string
	Body    string
}

// Sender delivers a rendered message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of a mail gateway. It stands
// in for the real delivery channel, which is out of scope here.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a Sender backed by the given logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "sender")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Notification delivered",
		"to", msg.To.Email,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
