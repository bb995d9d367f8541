package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful payment flows without calling the Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// RefundPaymentFunc allows customizing refund behavior
	RefundPaymentFunc func(ctx context.Context, params RefundParams) (*Refund, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores created checkout sessions for retrieval
	Sessions map[string]*CheckoutSession

	// Refunds stores issued refunds keyed by refund ID
	Refunds map[string]*Refund

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		Refunds:  make(map[string]*Refund),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s)", params.OrderID))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	session := &CheckoutSession{
		ID:        "cs_" + uuid.New().String(),
		URL:       "https://checkout.example.com/" + params.OrderID,
		Status:    "open",
		CreatedAt: time.Now(),
	}

	m.Sessions[session.ID] = session
	return session, nil
}

// RefundPayment issues a mock refund.
func (m *MockProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("RefundPayment(%s, %d)", params.PaymentIntentID, params.AmountCents))

	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, params)
	}

	if params.PaymentIntentID == "" {
		return nil, ErrPaymentIntentNotFound
	}

	r := &Refund{
		ID:              "re_" + uuid.New().String(),
		PaymentIntentID: params.PaymentIntentID,
		AmountCents:     params.AmountCents,
		Status:          "succeeded",
		CreatedAt:       time.Now(),
	}

	m.Refunds[r.ID] = r
	return r, nil
}

// VerifyWebhookSignature verifies a mock webhook payload.
// The default behavior accepts any signature and decodes the payload
// as a WebhookEvent envelope.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature)
	}

	if signature == "" {
		return nil, ErrInvalidWebhookSignature
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, ErrInvalidWebhookSignature
	}

	return &WebhookEvent{
		ID:   envelope.ID,
		Type: envelope.Type,
		Data: envelope.Data.Object,
	}, nil
}
