package billing

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using the Stripe Go SDK.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stripe.Key = config.APIKey

	return &StripeProvider{config: config}, nil
}

// CreateCheckoutSession creates a Stripe Checkout session in payment mode.
// The order and client IDs ride along in metadata so the webhook can
// reconcile the payment back to the local order.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	checkoutParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(params.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(params.CancelURL),
	}
	checkoutParams.Context = ctx
	checkoutParams.AddMetadata("order_id", params.OrderID)
	checkoutParams.AddMetadata("client_id", params.ClientID)
	checkoutParams.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: map[string]string{
			"order_id":  params.OrderID,
			"client_id": params.ClientID,
		},
	}
	if params.CustomerEmail != "" {
		checkoutParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.IdempotencyKey != "" {
		checkoutParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	session, err := checkoutsession.New(checkoutParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &CheckoutSession{
		ID:        session.ID,
		URL:       session.URL,
		Status:    string(session.Status),
		CreatedAt: time.Unix(session.Created, 0),
	}, nil
}

// RefundPayment issues a refund against a payment intent.
// A zero AmountCents refunds the full remaining amount.
func (s *StripeProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
	}
	refundParams.Context = ctx
	if params.AmountCents > 0 {
		refundParams.Amount = stripe.Int64(params.AmountCents)
	}
	if params.Reason != "" {
		refundParams.Reason = stripe.String(params.Reason)
	}
	for k, v := range params.Metadata {
		refundParams.AddMetadata(k, v)
	}

	r, err := refund.New(refundParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &Refund{
		ID:              r.ID,
		PaymentIntentID: params.PaymentIntentID,
		AmountCents:     r.Amount,
		Status:          string(r.Status),
		CreatedAt:       time.Unix(r.Created, 0),
	}, nil
}

// VerifyWebhookSignature verifies the Stripe-Signature header against the
// signing secret and decodes the event. ConstructEvent uses a constant-time
// HMAC comparison internally.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return nil, ErrInvalidWebhookSignature
	}

	return &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Data: event.Data.Raw,
	}, nil
}

// wrapStripeError converts a Stripe SDK error to a StripeError,
// mapping known codes to sentinel errors where callers branch on them.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}

	switch stripeErr.Code {
	case stripe.ErrorCodeAmountTooSmall:
		return ErrAmountTooSmall
	case stripe.ErrorCodeResourceMissing:
		return ErrPaymentIntentNotFound
	}

	return &StripeError{
		Message:     stripeErr.Msg,
		Code:        string(stripeErr.Code),
		DeclineCode: string(stripeErr.DeclineCode),
		RequestID:   stripeErr.RequestID,
	}
}
