package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (order_number, client_id, status, payment_status, subtotal_cents, tax_cents, total_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_number, client_id, status, payment_status, subtotal_cents, tax_cents, total_cents,
          currency, stripe_session_id, stripe_payment_intent_id, paid_at, completed_at, refund, created_at, updated_at
`

// CreateOrderParams contains parameters for creating an order.
type CreateOrderParams struct {
	OrderNumber   string
	ClientID      pgtype.UUID
	Status        string
	PaymentStatus string
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Currency      string
}

func (q *Queries) CreateOrder(ctx context.Context, params CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		params.OrderNumber, params.ClientID, params.Status, params.PaymentStatus,
		params.SubtotalCents, params.TaxCents, params.TotalCents, params.Currency)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, service_template_id, service_name, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, service_template_id, service_name, quantity, unit_price_cents, total_cents
`

// CreateOrderItemParams contains parameters for creating an order line item.
type CreateOrderItemParams struct {
	OrderID           pgtype.UUID
	ServiceTemplateID pgtype.UUID
	ServiceName       string
	Quantity          int32
	UnitPriceCents    int64
	TotalCents        int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, params CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		params.OrderID, params.ServiceTemplateID, params.ServiceName,
		params.Quantity, params.UnitPriceCents, params.TotalCents)
	var item OrderItem
	err := row.Scan(&item.ID, &item.OrderID, &item.ServiceTemplateID, &item.ServiceName,
		&item.Quantity, &item.UnitPriceCents, &item.TotalCents)
	return item, err
}

const getOrder = `
SELECT id, order_number, client_id, status, payment_status, subtotal_cents, tax_cents, total_cents,
       currency, stripe_session_id, stripe_payment_intent_id, paid_at, completed_at, refund, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByCheckoutSession = `
SELECT id, order_number, client_id, status, payment_status, subtotal_cents, tax_cents, total_cents,
       currency, stripe_session_id, stripe_payment_intent_id, paid_at, completed_at, refund, created_at, updated_at
FROM orders
WHERE stripe_session_id = $1
`

func (q *Queries) GetOrderByCheckoutSession(ctx context.Context, sessionID string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByCheckoutSession, sessionID))
}

const getOrderItems = `
SELECT id, order_id, service_template_id, service_name, quantity, unit_price_cents, total_cents
FROM order_items
WHERE order_id = $1
ORDER BY service_name
`

func (q *Queries) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ServiceTemplateID, &item.ServiceName,
			&item.Quantity, &item.UnitPriceCents, &item.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const updateOrderCheckoutSession = `
UPDATE orders
SET stripe_session_id = $2, updated_at = now()
WHERE id = $1
`

// UpdateOrderCheckoutSessionParams contains parameters for persisting the
// gateway checkout session id on an order.
type UpdateOrderCheckoutSessionParams struct {
	ID        pgtype.UUID
	SessionID string
}

func (q *Queries) UpdateOrderCheckoutSession(ctx context.Context, params UpdateOrderCheckoutSessionParams) error {
	_, err := q.db.Exec(ctx, updateOrderCheckoutSession, params.ID, params.SessionID)
	return err
}

const markOrderPaid = `
UPDATE orders
SET payment_status           = $2,
    status                   = $3,
    stripe_payment_intent_id = $4,
    paid_at                  = $5,
    completed_at             = $6,
    updated_at               = now()
WHERE id = $1
`

// MarkOrderPaidParams contains parameters for applying a payment confirmation.
// CompletedAt stays null for contract-gated orders.
type MarkOrderPaidParams struct {
	ID              pgtype.UUID
	PaymentStatus   string
	Status          string
	PaymentIntentID pgtype.Text
	PaidAt          pgtype.Timestamptz
	CompletedAt     pgtype.Timestamptz
}

func (q *Queries) MarkOrderPaid(ctx context.Context, params MarkOrderPaidParams) error {
	_, err := q.db.Exec(ctx, markOrderPaid,
		params.ID, params.PaymentStatus, params.Status, params.PaymentIntentID,
		params.PaidAt, params.CompletedAt)
	return err
}

const updateOrderStatus = `
UPDATE orders
SET status       = $2,
    completed_at = COALESCE($3, completed_at),
    updated_at   = now()
WHERE id = $1
`

// UpdateOrderStatusParams contains parameters for a fulfillment status change.
type UpdateOrderStatusParams struct {
	ID          pgtype.UUID
	Status      string
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, params UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx, updateOrderStatus, params.ID, params.Status, params.CompletedAt)
	return err
}

const applyOrderRefund = `
UPDATE orders
SET status         = $2,
    payment_status = $3,
    refund         = $4,
    updated_at     = now()
WHERE id = $1
`

// ApplyOrderRefundParams contains parameters for recording a processed refund.
// Refund is a marshaled domain.RefundRecord.
type ApplyOrderRefundParams struct {
	ID            pgtype.UUID
	Status        string
	PaymentStatus string
	Refund        []byte
}

func (q *Queries) ApplyOrderRefund(ctx context.Context, params ApplyOrderRefundParams) error {
	_, err := q.db.Exec(ctx, applyOrderRefund, params.ID, params.Status, params.PaymentStatus, params.Refund)
	return err
}

const createTimelineEntry = `
INSERT INTO order_timeline (order_id, status, title, description, completed_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, status, title, description, completed_at
`

// CreateTimelineEntryParams contains parameters for appending an audit entry.
type CreateTimelineEntryParams struct {
	OrderID     pgtype.UUID
	Status      string
	Title       string
	Description pgtype.Text
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) CreateTimelineEntry(ctx context.Context, params CreateTimelineEntryParams) (OrderTimeline, error) {
	row := q.db.QueryRow(ctx, createTimelineEntry,
		params.OrderID, params.Status, params.Title, params.Description, params.CompletedAt)
	var entry OrderTimeline
	err := row.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Title, &entry.Description, &entry.CompletedAt)
	return entry, err
}

const getOrderTimeline = `
SELECT id, order_id, status, title, description, completed_at
FROM order_timeline
WHERE order_id = $1
ORDER BY completed_at, id
`

func (q *Queries) GetOrderTimeline(ctx context.Context, orderID pgtype.UUID) ([]OrderTimeline, error) {
	rows, err := q.db.Query(ctx, getOrderTimeline, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OrderTimeline
	for rows.Next() {
		var entry OrderTimeline
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Title,
			&entry.Description, &entry.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type orderRow interface {
	Scan(dest ...any) error
}

func scanOrder(row orderRow) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.ClientID, &o.Status, &o.PaymentStatus,
		&o.SubtotalCents, &o.TaxCents, &o.TotalCents, &o.Currency,
		&o.StripeSessionID, &o.StripePaymentIntentID, &o.PaidAt, &o.CompletedAt,
		&o.Refund, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
