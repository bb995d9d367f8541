package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Client is an agency client. LifetimeValueCents and TotalOrders are derived
// aggregates over completed orders and are only mutated through the atomic
// increment/decrement queries in client.go.
type Client struct {
	ID                 pgtype.UUID
	Name               string
	BusinessName       pgtype.Text
	Email              string
	LifetimeValueCents int64
	TotalOrders        int32
	FirstOrderDate     pgtype.Timestamptz
	LastOrderDate      pgtype.Timestamptz
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// ServiceTemplate is an orderable service definition. PriceCents is nullable:
// templates without a price cannot be ordered.
type ServiceTemplate struct {
	ID               pgtype.UUID
	Name             string
	PriceCents       pgtype.Int8
	Currency         string
	IsPurchasable    bool
	RequiresContract bool
	ContractTemplate pgtype.Text
	MaxQuantity      int32
	CreatedAt        pgtype.Timestamptz
}

// Order holds the money snapshot and both lifecycle states. Refund is a JSONB
// column containing a domain.RefundRecord once a refund has been processed.
type Order struct {
	ID                    pgtype.UUID
	OrderNumber           string
	ClientID              pgtype.UUID
	Status                string
	PaymentStatus         string
	SubtotalCents         int64
	TaxCents              int64
	TotalCents            int64
	Currency              string
	StripeSessionID       pgtype.Text
	StripePaymentIntentID pgtype.Text
	PaidAt                pgtype.Timestamptz
	CompletedAt           pgtype.Timestamptz
	Refund                []byte
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

// OrderItem snapshots name and unit price at purchase time so later template
// edits cannot change historical orders.
type OrderItem struct {
	ID                pgtype.UUID
	OrderID           pgtype.UUID
	ServiceTemplateID pgtype.UUID
	ServiceName       string
	Quantity          int32
	UnitPriceCents    int64
	TotalCents        int64
}

// OrderTimeline is an append-only audit entry. There are no update or delete
// queries for this table.
type OrderTimeline struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	Status      string
	Title       string
	Description pgtype.Text
	CompletedAt pgtype.Timestamptz
}

// ServiceContract is the 1:1 signable contract for an order. SignedAt null
// means unsigned; once set the row is never updated again.
type ServiceContract struct {
	ID              pgtype.UUID
	OrderID         pgtype.UUID
	TemplateContent string
	SignedAt        pgtype.Timestamptz
	SignatureData   pgtype.Text
	SignedByName    pgtype.Text
	SignedByEmail   pgtype.Text
	IPAddress       pgtype.Text
	CreatedAt       pgtype.Timestamptz
}

// Invoice is generated at most once per order. Number is unique and
// year-scoped (INV-2026-1042).
type Invoice struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	Number    string
	PdfUrl    string
	DueDate   pgtype.Date
	SentAt    pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

// SalesMetrics is the per-day aggregate row. All counters accumulate via
// the upsert in metrics.go; nothing overwrites them.
type SalesMetrics struct {
	Day                pgtype.Date
	RevenueCents       int64
	OrderCount         int32
	AvgOrderValueCents int64
	NewCustomers       int32
	RefundAmountCents  int64
	ContractsSigned    int32
}

// CartItem is a client's saved cart line. The cart is a convenience cache;
// it is cleared after order creation but not transactionally with it.
type CartItem struct {
	ClientID          pgtype.UUID
	ServiceTemplateID pgtype.UUID
	Quantity          int32
	CreatedAt         pgtype.Timestamptz
}

// User is an authenticated principal. Session tokens are issued by the
// external identity provider and looked up in the sessions table.
type User struct {
	ID        pgtype.UUID
	Email     string
	Role      string
	ClientID  pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

// WebhookEndpoint is a registered outbound webhook target.
type WebhookEndpoint struct {
	ID        pgtype.UUID
	Name      string
	Url       string
	Secret    pgtype.Text
	Headers   []byte
	Events    []string
	Active    bool
	CreatedAt pgtype.Timestamptz
}

// WebhookExecution logs a single delivery attempt.
type WebhookExecution struct {
	ID         pgtype.UUID
	EndpointID pgtype.UUID
	Event      string
	Payload    []byte
	StatusCode pgtype.Int4
	Response   pgtype.Text
	Error      pgtype.Text
	DurationMs int64
	CreatedAt  pgtype.Timestamptz
}
