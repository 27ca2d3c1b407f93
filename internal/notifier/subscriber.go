package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// Start initializes the NATS JetStream consumer and starts multiple worker goroutines to process messages.
func Start(ctx context.Context, js jetstream.JetStream, sender Sender, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, sender, subscriberCfg.Timeout, subscriberCfg.Interval, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the NATS JetStream consumer and processes them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, sender Sender, timeout time.Duration, interval time.Duration, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			// ctx was cancelled or timed out (e.g., application shutdown)
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				// if the error is a timeout, we can just continue to the next iteration
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				// for other errors, we can log and retry
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, sender, logger)
			}
		}
	}
}

// handleMessage renders and delivers the notifications for a single order
// event. Delivery failures are logged and the message is acked anyway:
// notifications are best-effort and must never wedge the stream.
func handleMessage(ctx context.Context, msg jetstream.Msg, sender Sender, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}

	messages, err := render(msg.Subject(), msg.Data())
	if err != nil {
		logger.Error("failed to decode event", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	for _, m := range messages {
		if err := sender.Send(ctx, m); err != nil {
			logger.Error("failed to deliver notification",
				"to", m.To.Email, "subject", m.Subject, "error", err)
		}
	}

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

// render decodes an event payload by subject and produces the messages to
// deliver for it.
func render(subject string, data []byte) ([]Message, error) {
	switch subject {
	case messaging.OrdersCreatedSubject:
		var e events.OrderCreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return renderOrderCreated(e), nil
	case messaging.OrdersCancelledSubject:
		var e events.OrderCancelledEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return renderOrderCancelled(e), nil
	case messaging.OrdersStatusChangedSubject:
		var e events.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return renderStatusChanged(e), nil
	default:
		return nil, errors.New("unknown subject: " + subject)
	}
}
