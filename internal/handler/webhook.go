package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
)

const maxWebhookBodyBytes = 64 * 1024

// StripeWebhook handles POST /webhooks/stripe. The gateway retries on
// non-2xx responses; payment confirmation is idempotent so redelivery of
// a settled session is harmless.
func (h *Handler) StripeWebhook(c echo.Context) error {
	const op = "handler.StripeWebhook"
	start := time.Now()

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "failed to read request body"))
	}

	event, err := h.billing.VerifyWebhookSignature(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		// Nothing is processed on a bad signature.
		h.logger.Warn().Err(err).Msg("rejected webhook with invalid signature")
		if h.metrics != nil {
			h.metrics.WebhookFailed.WithLabelValues("invalid_signature").Inc()
		}
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid webhook signature"))
	}

	if h.metrics != nil {
		h.metrics.WebhookReceived.WithLabelValues(event.Type).Inc()
	}

	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(c, event.Data); err != nil {
			if h.metrics != nil {
				h.metrics.WebhookFailed.WithLabelValues(event.Type).Inc()
			}
			return ErrorResponse(c, h.logger, err)
		}
	default:
		h.logger.Debug().Str("event_type", event.Type).Msg("ignoring unhandled webhook event")
	}

	if h.metrics != nil {
		h.metrics.WebhookProcessed.WithLabelValues(event.Type).Inc()
		h.metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) handleCheckoutCompleted(c echo.Context, data []byte) error {
	const op = "handler.StripeWebhook"

	var session struct {
		ID            string `json:"id"`
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Invalid(op, "malformed checkout session payload")
	}
	if session.ID == "" {
		return domain.Invalid(op, "checkout session payload missing id")
	}

	detail, err := h.orders.ConfirmPayment(c.Request().Context(), service.ConfirmPaymentParams{
		SessionID:       session.ID,
		PaymentIntentID: session.PaymentIntent,
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("order_id", uuidText(detail.Order.ID)).
		Str("order_number", detail.Order.OrderNumber).
		Str("session_id", session.ID).
		Msg("payment confirmed from webhook")
	return nil
}

// CreateWebhookEndpointRequest is the body of POST /api/webhook-endpoints.
type CreateWebhookEndpointRequest struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Secret  string            `json:"secret,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Events  []string          `json:"events,omitempty"`
	Active  *bool             `json:"active,omitempty"`
}

// CreateWebhookEndpoint handles POST /api/webhook-endpoints. Admin only.
func (h *Handler) CreateWebhookEndpoint(c echo.Context) error {
	const op = "handler.CreateWebhookEndpoint"

	var req CreateWebhookEndpointRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid request body"))
	}

	var validation error
	if req.Name == "" {
		validation = domain.AddFieldError(validation, "name", "name is required")
	}
	if req.URL == "" {
		validation = domain.AddFieldError(validation, "url", "url is required")
	}
	if validation != nil {
		return ErrorResponse(c, h.logger, validation)
	}

	params := repository.CreateWebhookEndpointParams{
		Name:   req.Name,
		Url:    req.URL,
		Events: req.Events,
		Active: true,
	}
	if req.Secret != "" {
		params.Secret = pgtype.Text{String: req.Secret, Valid: true}
	}
	if len(req.Headers) > 0 {
		headers, err := json.Marshal(req.Headers)
		if err != nil {
			return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid headers"))
		}
		params.Headers = headers
	}
	if req.Active != nil {
		params.Active = *req.Active
	}

	ep, err := h.repo.CreateWebhookEndpoint(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, h.logger, domain.Internal(err, op, "failed to create webhook endpoint"))
	}
	return c.JSON(http.StatusCreated, endpointResponse(ep))
}

// ListWebhookEndpoints handles GET /api/webhook-endpoints. Admin only.
func (h *Handler) ListWebhookEndpoints(c echo.Context) error {
	const op = "handler.ListWebhookEndpoints"

	endpoints, err := h.repo.ListActiveWebhookEndpoints(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, h.logger, domain.Internal(err, op, "failed to list webhook endpoints"))
	}

	resp := make([]map[string]any, 0, len(endpoints))
	for _, ep := range endpoints {
		resp = append(resp, endpointResponse(ep))
	}
	return c.JSON(http.StatusOK, map[string]any{"endpoints": resp})
}
