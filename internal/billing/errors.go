package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrSessionNotFound is returned when a checkout session does not exist.
	ErrSessionNotFound = errors.New("billing: checkout session not found")

	// ErrPaymentIntentNotFound is returned when a payment intent does not exist.
	ErrPaymentIntentNotFound = errors.New("billing: payment intent not found")

	// ErrRefundFailed is returned when the provider rejects a refund.
	ErrRefundFailed = errors.New("billing: refund failed")

	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrAmountTooSmall is returned when a charge is below Stripe's minimum.
	ErrAmountTooSmall = errors.New("billing: amount too small (minimum $0.50 USD)")
)

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message     string // Human-readable error message
	Code        string // Stripe error code (e.g., "charge_already_refunded")
	DeclineCode string // Card decline reason (if applicable)
	RequestID   string // Stripe request ID for support
}

func (e *StripeError) Error() string {
	if e.DeclineCode != "" {
		return fmt.Sprintf("billing: %s (code: %s, decline: %s)", e.Message, e.Code, e.DeclineCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("billing: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("billing: %s", e.Message)
}
