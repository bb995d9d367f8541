package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/billing"
	"github.com/hollisdev/agencydesk/internal/dispatch"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/pricing"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

// OrderService owns every state transition of an order and keeps the
// dependent aggregates (client totals, daily metrics, timeline, invoice)
// consistent. Each transition runs inside a single database transaction.
type OrderService interface {
	// CreateOrder validates the requested items, persists a pending order
	// with snapshotted line items, and opens a gateway checkout session.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*CheckoutResult, error)

	// ConfirmPayment applies a settled payment to the order identified by
	// its checkout session. Idempotent: confirming an already-settled order
	// is a no-op.
	ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) (*OrderDetail, error)

	// SignContract records the one-time contract signature and completes
	// the order if payment has already settled.
	SignContract(ctx context.Context, params SignContractParams) (*OrderDetail, error)

	// RefundOrder executes a full or partial refund at the gateway and
	// records it locally.
	RefundOrder(ctx context.Context, params RefundOrderParams) (*OrderDetail, error)

	// GetOrder returns the order with items, timeline and contract state.
	GetOrder(ctx context.Context, orderID string) (*OrderDetail, error)
}

// CreateOrderParams contains parameters for creating an order.
type CreateOrderParams struct {
	// ClientID comes from the authenticated principal, never from the body.
	ClientID string

	CustomerEmail string

	Items []OrderItemInput
}

// OrderItemInput is one requested line at checkout.
type OrderItemInput struct {
	ServiceTemplateID string
	Quantity          int32
}

// CheckoutResult is returned from order creation.
type CheckoutResult struct {
	Order       repository.Order
	CheckoutURL string
	SessionID   string
}

// ConfirmPaymentParams contains parameters for applying a settled payment.
type ConfirmPaymentParams struct {
	// SessionID is the gateway checkout session the payment settled on.
	SessionID string

	PaymentIntentID string

	// PaidAt defaults to now when zero.
	PaidAt time.Time
}

// SignContractParams contains parameters for recording a contract signature.
type SignContractParams struct {
	OrderID       string
	SignedByName  string
	SignedByEmail string
	SignatureData string
	IPAddress     string
}

// RefundOrderParams contains parameters for refunding an order.
type RefundOrderParams struct {
	OrderID string
	Type    domain.RefundType

	// AmountCents is required for partial refunds and ignored for full ones.
	AmountCents int64

	Reason string
}

// OrderDetail is the full read model for one order.
type OrderDetail struct {
	Order    repository.Order
	Items    []repository.OrderItem
	Timeline []repository.OrderTimeline

	// Contract is nil when no line item requires one.
	Contract *repository.ServiceContract

	// Invoice is nil until the order completes.
	Invoice *repository.Invoice

	// Refund is decoded from the order's refund record, nil if none.
	Refund *domain.RefundRecord
}

// ContractRequired reports whether the order is gated on an unsigned contract.
func (d *OrderDetail) ContractRequired() bool {
	return d.Contract != nil && !d.Contract.SignedAt.Valid
}

// CheckoutURLs are the redirect targets passed to the gateway.
type CheckoutURLs struct {
	SuccessURL string
	CancelURL  string
}

const orderCurrency = "usd"

type orderService struct {
	store      repository.Store
	billing    billing.Provider
	pricer     pricing.Pricer
	invoices   InvoiceService
	dispatcher dispatch.Dispatcher
	metrics    *telemetry.BusinessMetrics
	urls       CheckoutURLs
	logger     zerolog.Logger
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	store repository.Store,
	billingProvider billing.Provider,
	pricer pricing.Pricer,
	invoices InvoiceService,
	dispatcher dispatch.Dispatcher,
	metrics *telemetry.BusinessMetrics,
	urls CheckoutURLs,
	logger zerolog.Logger,
) (OrderService, error) {
	if store == nil || billingProvider == nil || pricer == nil || invoices == nil {
		return nil, fmt.Errorf("store, billing provider, pricer and invoice service are required")
	}
	if dispatcher == nil {
		dispatcher = dispatch.NoopDispatcher{}
	}

	return &orderService{
		store:      store,
		billing:    billingProvider,
		pricer:     pricer,
		invoices:   invoices,
		dispatcher: dispatcher,
		metrics:    metrics,
		urls:       urls,
		logger:     logger.With().Str("component", "orders").Logger(),
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, params CreateOrderParams) (*CheckoutResult, error) {
	const op = "order.create"

	clientID, err := parseUUID(params.ClientID)
	if err != nil {
		return nil, domain.Invalid(op, "invalid client id")
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "client", params.ClientID)
		}
		return nil, domain.Internal(err, op, "failed to load client")
	}
	if params.CustomerEmail == "" {
		params.CustomerEmail = client.Email
	}

	requested := make([]pricing.RequestedItem, 0, len(params.Items))
	ids := make([]pgtype.UUID, 0, len(params.Items))
	for _, item := range params.Items {
		templateID, err := parseUUID(item.ServiceTemplateID)
		if err != nil {
			return nil, domain.Invalid(op, "invalid service template id")
		}
		requested = append(requested, pricing.RequestedItem{TemplateID: templateID, Quantity: item.Quantity})
		ids = append(ids, templateID)
	}

	templates, err := s.store.GetServiceTemplatesByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load service templates")
	}

	quote, err := s.pricer.Quote(ctx, templates, requested)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	order, err := tx.CreateOrder(ctx, repository.CreateOrderParams{
		OrderNumber:   newOrderNumber(),
		ClientID:      clientID,
		Status:        string(domain.OrderStatusPending),
		PaymentStatus: string(domain.PaymentStatusPending),
		SubtotalCents: quote.SubtotalCents,
		TaxCents:      quote.TaxCents,
		TotalCents:    quote.TotalCents,
		Currency:      orderCurrency,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create order")
	}

	for _, line := range quote.Lines {
		if _, err := tx.CreateOrderItem(ctx, repository.CreateOrderItemParams{
			OrderID:           order.ID,
			ServiceTemplateID: line.TemplateID,
			ServiceName:       line.Name,
			Quantity:          line.Quantity,
			UnitPriceCents:    line.UnitPriceCents,
			TotalCents:        line.TotalCents,
		}); err != nil {
			return nil, domain.Internal(err, op, "failed to create order item")
		}
	}

	// The contract content is snapshotted here so later template edits
	// cannot change what the client signs.
	if quote.RequiresContract {
		if _, err := tx.CreateServiceContract(ctx, repository.CreateServiceContractParams{
			OrderID:         order.ID,
			TemplateContent: contractContent(quote.Lines),
		}); err != nil {
			return nil, domain.Internal(err, op, "failed to create service contract")
		}
	}

	if _, err := tx.CreateTimelineEntry(ctx, repository.CreateTimelineEntryParams{
		OrderID:     order.ID,
		Status:      domain.TimelineOrderCreated,
		Title:       "Order created",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s created with %d items", order.OrderNumber, len(quote.Lines)), Valid: true},
		CompletedAt: now(),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to append timeline entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit order")
	}

	lineItems := make([]billing.CheckoutLineItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lineItems = append(lineItems, billing.CheckoutLineItem{
			Name:            line.Name,
			UnitAmountCents: line.UnitPriceCents,
			Quantity:        line.Quantity,
		})
	}

	session, err := s.billing.CreateCheckoutSession(ctx, billing.CheckoutParams{
		OrderID:        uuidString(order.ID),
		ClientID:       params.ClientID,
		CustomerEmail:  params.CustomerEmail,
		LineItems:      lineItems,
		SuccessURL:     s.urls.SuccessURL,
		CancelURL:      s.urls.CancelURL,
		IdempotencyKey: uuidString(order.ID),
	})
	if err != nil {
		// The pending order stays behind for retry; nothing has been charged.
		s.logger.Error().Err(err).
			Str("order_id", uuidString(order.ID)).
			Msg("checkout session creation failed")
		return nil, domain.Gateway(err, op, "failed to create checkout session")
	}

	if err := s.store.UpdateOrderCheckoutSession(ctx, repository.UpdateOrderCheckoutSessionParams{
		ID:        order.ID,
		SessionID: session.ID,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to persist checkout session")
	}
	order.StripeSessionID = pgtype.Text{String: session.ID, Valid: true}

	// The cart is a convenience cache; losing this write is harmless.
	if err := s.store.ClearCart(ctx, clientID); err != nil {
		s.logger.Warn().Err(err).
			Str("client_id", params.ClientID).
			Msg("failed to clear cart after checkout")
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
		s.metrics.OrderValue.Observe(float64(order.TotalCents))
	}

	s.logger.Info().
		Str("order_id", uuidString(order.ID)).
		Str("order_number", order.OrderNumber).
		Str("client_id", params.ClientID).
		Int64("total_cents", order.TotalCents).
		Msg("order created")

	s.dispatchOrderEvent(ctx, domain.EventOrderCreated, order)

	return &CheckoutResult{
		Order:       order,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) (*OrderDetail, error) {
	const op = "order.confirm_payment"

	order, err := s.store.GetOrderByCheckoutSession(ctx, params.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "order", params.SessionID)
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	switch domain.PaymentStatus(order.PaymentStatus) {
	case domain.PaymentStatusSucceeded:
		// Replayed webhook. Nothing to do.
		s.logger.Info().
			Str("order_id", uuidString(order.ID)).
			Msg("payment already confirmed, skipping")
		return s.detail(ctx, order.ID)
	case domain.PaymentStatusRefunded:
		return nil, domain.Conflict(op, "order has already been refunded")
	}

	paidAt := params.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	contract, hasContract, err := s.contractFor(ctx, s.store, order.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load contract")
	}

	// An unsigned contract gates completion; a pre-signed one does not.
	completes := !hasContract || contract.SignedAt.Valid

	status := domain.OrderStatusProcessing
	var completedAt pgtype.Timestamptz
	if completes {
		status = domain.OrderStatusCompleted
		completedAt = pgtype.Timestamptz{Time: paidAt, Valid: true}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := tx.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{
		ID:              order.ID,
		PaymentStatus:   string(domain.PaymentStatusSucceeded),
		Status:          string(status),
		PaymentIntentID: pgtype.Text{String: params.PaymentIntentID, Valid: params.PaymentIntentID != ""},
		PaidAt:          pgtype.Timestamptz{Time: paidAt, Valid: true},
		CompletedAt:     completedAt,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to mark order paid")
	}

	if _, err := tx.CreateTimelineEntry(ctx, repository.CreateTimelineEntryParams{
		OrderID:     order.ID,
		Status:      domain.TimelinePaymentReceived,
		Title:       "Payment received",
		Description: pgtype.Text{String: fmt.Sprintf("Payment of %s settled", formatCents(order.TotalCents)), Valid: true},
		CompletedAt: pgtype.Timestamptz{Time: paidAt, Valid: true},
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to append timeline entry")
	}

	if completes {
		if err := s.applyCompletion(ctx, tx, order, paidAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit payment confirmation")
	}

	if s.metrics != nil {
		s.metrics.PaymentSucceeded.Inc()
		if completes {
			s.metrics.OrdersCompleted.Inc()
		}
	}

	s.logger.Info().
		Str("order_id", uuidString(order.ID)).
		Str("order_number", order.OrderNumber).
		Bool("completed", completes).
		Msg("payment confirmed")

	s.dispatchOrderEvent(ctx, domain.EventOrderPaid, order)
	if completes {
		s.dispatchOrderEvent(ctx, domain.EventOrderCompleted, order)
	}

	return s.detail(ctx, order.ID)
}

func (s *orderService) SignContract(ctx context.Context, params SignContractParams) (*OrderDetail, error) {
	const op = "order.sign_contract"

	orderID, err := parseUUID(params.OrderID)
	if err != nil {
		return nil, domain.Invalid(op, "invalid order id")
	}
	if params.SignedByName == "" || params.SignatureData == "" {
		return nil, domain.Invalid(op, "signer name and signature are required")
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "order", params.OrderID)
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	contract, hasContract, err := s.contractFor(ctx, s.store, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load contract")
	}
	if !hasContract {
		return nil, ErrContractNotRequired
	}
	if contract.SignedAt.Valid {
		return nil, ErrContractAlreadySigned
	}

	signedAt := time.Now().UTC()
	paid := domain.PaymentStatus(order.PaymentStatus) == domain.PaymentStatusSucceeded

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	// The signature write is guarded by signed_at IS NULL in SQL, so a
	// concurrent double-sign loses here rather than overwriting.
	if err := tx.SignServiceContract(ctx, repository.SignServiceContractParams{
		ID:            contract.ID,
		SignedAt:      pgtype.Timestamptz{Time: signedAt, Valid: true},
		SignatureData: pgtype.Text{String: params.SignatureData, Valid: true},
		SignedByName:  pgtype.Text{String: params.SignedByName, Valid: true},
		SignedByEmail: pgtype.Text{String: params.SignedByEmail, Valid: params.SignedByEmail != ""},
		IPAddress:     pgtype.Text{String: params.IPAddress, Valid: params.IPAddress != ""},
	}); err != nil {
		if errors.Is(err, repository.ErrContractAlreadySigned) {
			return nil, ErrContractAlreadySigned
		}
		return nil, domain.Internal(err, op, "failed to sign contract")
	}

	status := domain.OrderStatusContractSigned
	var completedAt pgtype.Timestamptz
	if paid {
		status = domain.OrderStatusCompleted
		completedAt = pgtype.Timestamptz{Time: signedAt, Valid: true}
	}

	if err := tx.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		ID:          orderID,
		Status:      string(status),
		CompletedAt: completedAt,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update order status")
	}

	if _, err := tx.CreateTimelineEntry(ctx, repository.CreateTimelineEntryParams{
		OrderID:     orderID,
		Status:      domain.TimelineContractSigned,
		Title:       "Contract signed",
		Description: pgtype.Text{String: fmt.Sprintf("Signed by %s", params.SignedByName), Valid: true},
		CompletedAt: pgtype.Timestamptz{Time: signedAt, Valid: true},
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to append timeline entry")
	}

	if err := tx.UpsertDailyMetrics(ctx, repository.UpsertDailyMetricsParams{
		Day:             pgtype.Date{Time: signedAt, Valid: true},
		ContractsSigned: 1,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update daily metrics")
	}

	if paid {
		if err := s.applyCompletion(ctx, tx, order, signedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit contract signature")
	}

	if s.metrics != nil {
		s.metrics.ContractsSigned.Inc()
		if paid {
			s.metrics.OrdersCompleted.Inc()
		}
	}

	s.logger.Info().
		Str("order_id", params.OrderID).
		Str("signed_by", params.SignedByName).
		Bool("completed", paid).
		Msg("contract signed")

	s.dispatchOrderEvent(ctx, domain.EventContractSigned, order)
	if paid {
		s.dispatchOrderEvent(ctx, domain.EventOrderCompleted, order)
	}

	return s.detail(ctx, orderID)
}

func (s *orderService) RefundOrder(ctx context.Context, params RefundOrderParams) (*OrderDetail, error) {
	const op = "order.refund"

	orderID, err := parseUUID(params.OrderID)
	if err != nil {
		return nil, domain.Invalid(op, "invalid order id")
	}
	if params.Reason == "" {
		return nil, ErrRefundReasonRequired
	}
	if !params.Type.Valid() {
		return nil, domain.Invalid(op, "refund type must be full or partial")
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "order", params.OrderID)
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	// All preconditions are checked before the gateway sees the request.
	switch domain.PaymentStatus(order.PaymentStatus) {
	case domain.PaymentStatusRefunded:
		return nil, ErrAlreadyRefunded
	case domain.PaymentStatusPending:
		return nil, ErrPaymentNotSettled
	}
	if !order.StripePaymentIntentID.Valid {
		return nil, ErrMissingPaymentIntent
	}
	if order.Refund != nil {
		return nil, ErrAlreadyRefunded
	}

	amount := order.TotalCents
	if params.Type == domain.RefundTypePartial {
		if params.AmountCents <= 0 || params.AmountCents > order.TotalCents {
			return nil, ErrRefundAmountInvalid
		}
		amount = params.AmountCents
	}

	refund, err := s.billing.RefundPayment(ctx, billing.RefundParams{
		PaymentIntentID: order.StripePaymentIntentID.String,
		AmountCents:     amount,
		Reason:          "requested_by_customer",
		Metadata: map[string]string{
			"order_id": params.OrderID,
			"type":     string(params.Type),
		},
	})
	if err != nil {
		return nil, domain.Gateway(err, op, "refund failed at payment gateway")
	}

	// Logged before any local write. If the transaction below fails, the
	// money has still moved; reconciliation starts from this line.
	s.logger.Info().
		Str("order_id", params.OrderID).
		Str("gateway_refund_id", refund.ID).
		Int64("amount_cents", amount).
		Str("type", string(params.Type)).
		Msg("gateway refund executed")

	record := domain.RefundRecord{
		Version:         domain.RefundRecordVersion,
		Type:            params.Type,
		AmountCents:     amount,
		Reason:          params.Reason,
		GatewayRefundID: refund.ID,
		GatewayStatus:   refund.Status,
		RefundedAt:      time.Now().UTC(),
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode refund record")
	}

	status := domain.OrderStatus(order.Status)
	paymentStatus := domain.PaymentStatusSucceeded
	if params.Type == domain.RefundTypeFull {
		status = domain.OrderStatusRefunded
		paymentStatus = domain.PaymentStatusRefunded
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := tx.ApplyOrderRefund(ctx, repository.ApplyOrderRefundParams{
		ID:            orderID,
		Status:        string(status),
		PaymentStatus: string(paymentStatus),
		Refund:        recordJSON,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to record refund")
	}

	if _, err := tx.CreateTimelineEntry(ctx, repository.CreateTimelineEntryParams{
		OrderID:     orderID,
		Status:      domain.TimelineRefundProcessed,
		Title:       "Refund processed",
		Description: pgtype.Text{String: fmt.Sprintf("%s refund of %s: %s", params.Type, formatCents(amount), params.Reason), Valid: true},
		CompletedAt: pgtype.Timestamptz{Time: record.RefundedAt, Valid: true},
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to append timeline entry")
	}

	// Partial refunds leave lifetime value untouched; the client still
	// bought and kept the engagement.
	if params.Type == domain.RefundTypeFull {
		if err := tx.DecrementClientLifetimeValue(ctx, repository.DecrementClientLifetimeValueParams{
			ClientID:    order.ClientID,
			AmountCents: amount,
		}); err != nil {
			return nil, domain.Internal(err, op, "failed to adjust client lifetime value")
		}
	}

	if err := tx.UpsertDailyMetrics(ctx, repository.UpsertDailyMetricsParams{
		Day:               pgtype.Date{Time: record.RefundedAt, Valid: true},
		RefundAmountCents: amount,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update daily metrics")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit refund")
	}

	if s.metrics != nil {
		s.metrics.RefundsIssued.WithLabelValues(string(params.Type)).Inc()
		s.metrics.RefundAmount.Observe(float64(amount))
	}

	s.logger.Info().
		Str("order_id", params.OrderID).
		Str("gateway_refund_id", refund.ID).
		Msg("refund recorded")

	s.dispatchOrderEvent(ctx, domain.EventOrderRefunded, order)

	return s.detail(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	const op = "order.get"

	id, err := parseUUID(orderID)
	if err != nil {
		return nil, domain.Invalid(op, "invalid order id")
	}

	detail, err := s.detail(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "order", orderID)
		}
		return nil, err
	}
	return detail, nil
}

// applyCompletion performs the bookkeeping that runs exactly once when an
// order reaches completed: invoice generation, client aggregates, and the
// daily sales metrics upsert. Must run inside the caller's transaction.
func (s *orderService) applyCompletion(ctx context.Context, tx repository.Tx, order repository.Order, completedAt time.Time) error {
	const op = "order.complete"

	client, err := tx.GetClient(ctx, order.ClientID)
	if err != nil {
		return domain.Internal(err, op, "failed to load client")
	}

	if _, err := s.invoices.GenerateInvoice(ctx, tx, order); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.InvoicesGenerated.Inc()
	}

	if err := tx.ApplyOrderCompletion(ctx, repository.ApplyOrderCompletionParams{
		ClientID:    order.ClientID,
		AmountCents: order.TotalCents,
		CompletedAt: pgtype.Timestamptz{Time: completedAt, Valid: true},
	}); err != nil {
		return domain.Internal(err, op, "failed to update client aggregates")
	}

	newCustomers := int32(0)
	if client.TotalOrders == 0 {
		newCustomers = 1
	}

	if err := tx.UpsertDailyMetrics(ctx, repository.UpsertDailyMetricsParams{
		Day:          pgtype.Date{Time: completedAt, Valid: true},
		RevenueCents: order.TotalCents,
		OrderCount:   1,
		NewCustomers: newCustomers,
	}); err != nil {
		return domain.Internal(err, op, "failed to update daily metrics")
	}

	return nil
}

// contractFor returns the order's contract and whether one exists.
func (s *orderService) contractFor(ctx context.Context, q repository.Querier, orderID pgtype.UUID) (repository.ServiceContract, bool, error) {
	contract, err := q.GetContractByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ServiceContract{}, false, nil
		}
		return repository.ServiceContract{}, false, err
	}
	return contract, true, nil
}

func (s *orderService) detail(ctx context.Context, orderID pgtype.UUID) (*OrderDetail, error) {
	const op = "order.get"

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	timeline, err := s.store.GetOrderTimeline(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order timeline")
	}

	detail := &OrderDetail{
		Order:    order,
		Items:    items,
		Timeline: timeline,
	}

	contract, hasContract, err := s.contractFor(ctx, s.store, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load contract")
	}
	if hasContract {
		detail.Contract = &contract
	}

	invoice, err := s.store.GetInvoiceByOrder(ctx, orderID)
	if err == nil {
		detail.Invoice = &invoice
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to load invoice")
	}

	if order.Refund != nil {
		var record domain.RefundRecord
		if err := json.Unmarshal(order.Refund, &record); err != nil {
			return nil, domain.Internal(err, op, "corrupt refund record")
		}
		detail.Refund = &record
	}

	return detail, nil
}

func (s *orderService) dispatchOrderEvent(ctx context.Context, name string, order repository.Order) {
	payload, err := json.Marshal(map[string]any{
		"order_number": order.OrderNumber,
		"client_id":    uuidString(order.ClientID),
		"total_cents":  order.TotalCents,
		"currency":     order.Currency,
	})
	if err != nil {
		payload = nil
	}

	s.dispatcher.Dispatch(ctx, dispatch.Event{
		Name:    name,
		OrderID: uuidString(order.ID),
		Data:    payload,
	})
}

// newOrderNumber generates a display identifier like ORD-20260901-3F2A1B.
func newOrderNumber() string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%s-%X", time.Now().UTC().Format("20060102"), id[:3])
}

func contractContent(lines []pricing.Line) string {
	content := ""
	for _, line := range lines {
		if !line.RequiresContract || line.ContractTemplate == "" {
			continue
		}
		if content != "" {
			content += "\n\n"
		}
		content += line.ContractTemplate
	}
	return content
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func parseUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func now() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
}
