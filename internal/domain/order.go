package domain

import "time"

// OrderStatus is the fulfillment state of an order. Transitions are owned by
// the order service; handlers and repositories never assign these directly.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusContractSigned OrderStatus = "contract_signed"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusContractSigned,
		OrderStatusCompleted, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order's payment.
// It only moves forward: pending -> succeeded -> refunded.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusRefunded:
		return true
	}
	return false
}

// RefundType distinguishes full refunds (order becomes refunded, lifetime
// value is decremented) from partial refunds (order stays completed).
type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

// Valid reports whether t is a known refund type.
func (t RefundType) Valid() bool {
	return t == RefundTypeFull || t == RefundTypePartial
}

// RefundRecord is the structured refund audit record stored on the order.
// It is persisted as JSONB but always read and written through this type;
// Version allows the shape to evolve without breaking old rows.
type RefundRecord struct {
	Version         int        `json:"version"`
	Type            RefundType `json:"type"`
	AmountCents     int64      `json:"amount_cents"`
	Reason          string     `json:"reason"`
	GatewayRefundID string     `json:"gateway_refund_id"`
	GatewayStatus   string     `json:"gateway_status"`
	RefundedAt      time.Time  `json:"refunded_at"`
}

// RefundRecordVersion is the current RefundRecord schema version.
const RefundRecordVersion = 1

// Timeline entry labels. One entry is appended per lifecycle transition;
// the timeline is append-only.
const (
	TimelineOrderCreated    = "order_created"
	TimelinePaymentReceived = "payment_received"
	TimelineContractSigned  = "contract_signed"
	TimelineRefundProcessed = "refund_processed"
)

// Dispatch event names published to the webhook queue.
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCompleted = "order.completed"
	EventOrderRefunded  = "order.refunded"
	EventContractSigned = "contract.signed"
)

// Principal roles. Authentication itself is delegated to the identity
// provider; we only look tokens up and enforce roles.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)
