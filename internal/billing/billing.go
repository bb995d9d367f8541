package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session for an order.
	// Returns the session with a URL the client is redirected to.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// RefundPayment refunds a completed payment, fully or partially.
	RefundPayment(ctx context.Context, params RefundParams) (*Refund, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic
	// and returns the decoded event. Verification uses a constant-time
	// comparison against the signing secret.
	VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutParams contains parameters for creating a checkout session.
type CheckoutParams struct {
	// OrderID links the session back to the local order (stored in metadata).
	OrderID string

	// ClientID identifies the purchasing client (stored in metadata).
	ClientID string

	// CustomerEmail prefills the email field on the hosted page.
	CustomerEmail string

	// LineItems are the priced services being purchased.
	LineItems []CheckoutLineItem

	// SuccessURL and CancelURL are the redirect targets after checkout.
	SuccessURL string
	CancelURL  string

	// IdempotencyKey prevents duplicate sessions for the same order.
	IdempotencyKey string
}

// CheckoutLineItem represents a single priced line on the hosted page.
type CheckoutLineItem struct {
	Name string

	// UnitAmountCents is the per-unit price in smallest currency unit.
	UnitAmountCents int64

	Quantity int32
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	// ID is the provider session ID (cs_...).
	ID string

	// URL is where the client completes payment.
	URL string

	Status    string
	CreatedAt time.Time
}

// RefundParams contains parameters for creating a refund.
type RefundParams struct {
	PaymentIntentID string

	// AmountCents is the amount to refund. If 0, refunds the full amount.
	AmountCents int64

	// Reason: "duplicate", "fraudulent", "requested_by_customer"
	Reason string

	Metadata map[string]string
}

// Refund represents a payment refund.
type Refund struct {
	ID              string
	PaymentIntentID string
	AmountCents     int64
	Status          string // succeeded, pending, failed
	CreatedAt       time.Time
}

// WebhookEvent is a verified, decoded webhook payload.
type WebhookEvent struct {
	ID string

	// Type is the provider event name, e.g. "checkout.session.completed".
	Type string

	// Data is the raw JSON of the event object.
	Data []byte
}
