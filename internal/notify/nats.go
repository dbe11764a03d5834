package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// subjectPrefix is the NATS subject namespace for notification requests
const subjectPrefix = "notify."

// NATSNotifier implements Notifier by publishing delivery requests to NATS.
// A Worker in the notification process consumes and delivers them, so the
// publishing side returns as soon as the broker accepts the message.
type NATSNotifier struct {
	nc *nats.Conn
}

// NewNATSNotifier creates a queued notifier
func NewNATSNotifier(nc *nats.Conn) *NATSNotifier {
	return &NATSNotifier{nc: nc}
}

// Send publishes the notification request
func (p *NATSNotifier) Send(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := p.nc.Publish(subjectPrefix+string(n.Template), data); err != nil {
		log.Error().
			Err(err).
			Str("template", string(n.Template)).
			Msg("Failed to queue notification")
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// Worker consumes queued notification requests and delivers them
type Worker struct {
	nc       *nats.Conn
	delivery Notifier
	sub      *nats.Subscription
}

// NewWorker creates a notification worker delivering via the given notifier
func NewWorker(nc *nats.Conn, delivery Notifier) *Worker {
	return &Worker{nc: nc, delivery: delivery}
}

// Start subscribes and blocks until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	sub, err := w.nc.QueueSubscribe(subjectPrefix+">", "notify-workers", w.handle)
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	w.sub = sub

	log.Info().Msg("Notification worker started")

	<-ctx.Done()

	sub.Unsubscribe()

	return ctx.Err()
}

// handle delivers one queued notification
func (w *Worker) handle(msg *nats.Msg) {
	var n Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to unmarshal notification")
		return
	}

	// Delivery errors are logged by the delivery notifier; a failed send is
	// dropped rather than redelivered to avoid duplicate emails
	_ = w.delivery.Send(context.Background(), n)
}
