package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event is a lifecycle notification published for webhook fan-out.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	OrderID    string          `json:"order_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Dispatcher enqueues events for asynchronous delivery. Dispatch never
// returns an error: delivery is fire-and-forget and must not affect the
// transaction that produced the event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// NatsDispatcher publishes events to a NATS subject. Delivery to webhook
// endpoints happens in the worker process subscribed to the same subject.
type NatsDispatcher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNatsDispatcher creates a dispatcher publishing to subject on conn.
func NewNatsDispatcher(conn *nats.Conn, subject string, logger zerolog.Logger) *NatsDispatcher {
	return &NatsDispatcher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch publishes the event. Failures are logged and dropped; the order
// workflow that emitted the event has already committed.
func (d *NatsDispatcher) Dispatch(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error().Err(err).
			Str("event", event.Name).
			Str("order_id", event.OrderID).
			Msg("failed to encode event")
		return
	}

	if err := d.conn.Publish(d.subject, payload); err != nil {
		d.logger.Error().Err(err).
			Str("event", event.Name).
			Str("order_id", event.OrderID).
			Msg("failed to publish event")
		return
	}

	d.logger.Debug().
		Str("event", event.Name).
		Str("order_id", event.OrderID).
		Msg("event published")
}

// NoopDispatcher drops all events. Used when NATS is not configured.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(ctx context.Context, event Event) {}
