package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hollisdev/agencydesk/internal/dispatch"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/telemetry"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config holds worker configuration.
type Config struct {
	// Subject is the NATS subject carrying dispatch events.
	Subject string

	// RequestTimeout bounds each delivery attempt.
	RequestTimeout time.Duration

	// MaxResponseBytes limits how much of the response body is logged.
	MaxResponseBytes int64
}

// Store is the persistence surface the worker needs.
type Store interface {
	ListActiveWebhookEndpoints(ctx context.Context) ([]repository.WebhookEndpoint, error)
	CreateWebhookExecution(ctx context.Context, params repository.CreateWebhookExecutionParams) error
}

// Worker consumes dispatch events from NATS and fans each one out to the
// registered webhook endpoints. Delivery is one attempt per endpoint per
// event; the outcome is recorded, never retried.
type Worker struct {
	config  Config
	conn    *nats.Conn
	repo    Store
	client  *http.Client
	metrics *telemetry.BusinessMetrics
	logger  zerolog.Logger
}

// NewWorker creates a webhook delivery worker.
func NewWorker(conn *nats.Conn, repo Store, metrics *telemetry.BusinessMetrics, config Config, logger zerolog.Logger) *Worker {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.MaxResponseBytes == 0 {
		config.MaxResponseBytes = 4 * 1024
	}

	return &Worker{
		config:  config,
		conn:    conn,
		repo:    repo,
		client:  &http.Client{Timeout: config.RequestTimeout},
		metrics: metrics,
		logger:  logger.With().Str("component", "worker").Logger(),
	}
}

// Start subscribes and processes events until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := w.conn.ChanSubscribe(w.config.Subject, msgs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	w.logger.Info().Str("subject", w.config.Subject).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopping")
			return nil
		case msg := <-msgs:
			w.HandleMessage(ctx, msg.Data)
		}
	}
}

// HandleMessage processes one raw event payload: decode, match endpoints,
// deliver once each.
func (w *Worker) HandleMessage(ctx context.Context, data []byte) {
	var event dispatch.Event
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error().Err(err).Msg("malformed event payload")
		return
	}

	endpoints, err := w.repo.ListActiveWebhookEndpoints(ctx)
	if err != nil {
		w.logger.Error().Err(err).Str("event", event.Name).Msg("failed to list webhook endpoints")
		return
	}

	for _, endpoint := range endpoints {
		if !subscribed(endpoint, event.Name) {
			continue
		}
		w.deliver(ctx, endpoint, event)
	}
}

// subscribed reports whether the endpoint wants this event. An empty event
// list means all events.
func subscribed(endpoint repository.WebhookEndpoint, eventName string) bool {
	if len(endpoint.Events) == 0 {
		return true
	}
	for _, name := range endpoint.Events {
		if name == eventName {
			return true
		}
	}
	return false
}

// deliver makes exactly one delivery attempt and records the outcome.
func (w *Worker) deliver(ctx context.Context, endpoint repository.WebhookEndpoint, event dispatch.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.Error().Err(err).Str("event", event.Name).Msg("failed to encode delivery payload")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	statusCode, responseBody, deliveryErr := w.post(reqCtx, endpoint, payload)
	duration := time.Since(start)

	execution := repository.CreateWebhookExecutionParams{
		EndpointID: endpoint.ID,
		Event:      event.Name,
		Payload:    payload,
		DurationMs: duration.Milliseconds(),
	}
	if deliveryErr != nil {
		execution.Error = pgtype.Text{String: deliveryErr.Error(), Valid: true}
		if w.metrics != nil {
			w.metrics.WebhookFailed.WithLabelValues(event.Name).Inc()
		}
		w.logger.Warn().Err(deliveryErr).
			Str("event", event.Name).
			Str("endpoint", endpoint.Url).
			Msg("webhook delivery failed")
	} else {
		execution.StatusCode = pgtype.Int4{Int32: int32(statusCode), Valid: true}
		execution.Response = pgtype.Text{String: responseBody, Valid: true}
		if w.metrics != nil {
			w.metrics.WebhookProcessed.WithLabelValues(event.Name).Inc()
			w.metrics.WebhookLatency.Observe(duration.Seconds())
		}
		w.logger.Info().
			Str("event", event.Name).
			Str("endpoint", endpoint.Url).
			Int("status", statusCode).
			Dur("duration", duration).
			Msg("webhook delivered")
	}

	if err := w.repo.CreateWebhookExecution(ctx, execution); err != nil {
		w.logger.Error().Err(err).
			Str("event", event.Name).
			Str("endpoint", endpoint.Url).
			Msg("failed to record webhook execution")
	}
}

func (w *Worker) post(ctx context.Context, endpoint repository.WebhookEndpoint, payload []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.Url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if endpoint.Secret.Valid {
		req.Header.Set("X-Webhook-Signature", signPayload(payload, endpoint.Secret.String))
	}

	var custom map[string]string
	if len(endpoint.Headers) > 0 {
		if err := json.Unmarshal(endpoint.Headers, &custom); err == nil {
			for k, v := range custom {
				req.Header.Set(k, v)
			}
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, w.config.MaxResponseBytes))
	return resp.StatusCode, string(body), nil
}

// signPayload computes the hex HMAC-SHA256 of the payload under the
// endpoint's secret. Receivers verify it with a constant-time comparison.
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
