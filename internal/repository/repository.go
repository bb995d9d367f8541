package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier is the query surface used by services. Implemented by *Queries
// (pgx) and by test fakes.
type Querier interface {
	// Clients
	CreateClient(ctx context.Context, params CreateClientParams) (Client, error)
	GetClient(ctx context.Context, id pgtype.UUID) (Client, error)
	ApplyOrderCompletion(ctx context.Context, params ApplyOrderCompletionParams) error
	DecrementClientLifetimeValue(ctx context.Context, params DecrementClientLifetimeValueParams) error

	// Service templates
	CreateServiceTemplate(ctx context.Context, params CreateServiceTemplateParams) (ServiceTemplate, error)
	GetServiceTemplate(ctx context.Context, id pgtype.UUID) (ServiceTemplate, error)
	GetServiceTemplatesByIDs(ctx context.Context, ids []pgtype.UUID) ([]ServiceTemplate, error)

	// Orders
	CreateOrder(ctx context.Context, params CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, params CreateOrderItemParams) (OrderItem, error)
	GetOrder(ctx context.Context, id pgtype.UUID) (Order, error)
	GetOrderByCheckoutSession(ctx context.Context, sessionID string) (Order, error)
	GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	UpdateOrderCheckoutSession(ctx context.Context, params UpdateOrderCheckoutSessionParams) error
	MarkOrderPaid(ctx context.Context, params MarkOrderPaidParams) error
	UpdateOrderStatus(ctx context.Context, params UpdateOrderStatusParams) error
	ApplyOrderRefund(ctx context.Context, params ApplyOrderRefundParams) error

	// Timeline (append-only)
	CreateTimelineEntry(ctx context.Context, params CreateTimelineEntryParams) (OrderTimeline, error)
	GetOrderTimeline(ctx context.Context, orderID pgtype.UUID) ([]OrderTimeline, error)

	// Contracts
	CreateServiceContract(ctx context.Context, params CreateServiceContractParams) (ServiceContract, error)
	GetContractByOrder(ctx context.Context, orderID pgtype.UUID) (ServiceContract, error)
	SignServiceContract(ctx context.Context, params SignServiceContractParams) error

	// Invoices
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID pgtype.UUID) (Invoice, error)
	GetLastInvoiceNumber(ctx context.Context, yearPrefix string) (string, error)

	// Sales metrics
	UpsertDailyMetrics(ctx context.Context, params UpsertDailyMetricsParams) error
	GetDailyMetrics(ctx context.Context, day pgtype.Date) (SalesMetrics, error)

	// Cart
	AddCartItem(ctx context.Context, params AddCartItemParams) error
	GetCartItems(ctx context.Context, clientID pgtype.UUID) ([]CartItem, error)
	ClearCart(ctx context.Context, clientID pgtype.UUID) error

	// Principals
	GetUserBySessionToken(ctx context.Context, token string) (User, error)

	// Webhooks
	CreateWebhookEndpoint(ctx context.Context, params CreateWebhookEndpointParams) (WebhookEndpoint, error)
	ListActiveWebhookEndpoints(ctx context.Context) ([]WebhookEndpoint, error)
	CreateWebhookExecution(ctx context.Context, params CreateWebhookExecutionParams) error
}

// Tx is a transactional query scope.
type Tx interface {
	Querier

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the full persistence surface: queries plus transaction control.
type Store interface {
	Querier

	BeginTx(ctx context.Context) (Tx, error)
}

// Queries executes SQL against a DBTX (pool or transaction).
type Queries struct {
	db DBTX
}

// New creates a Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// PGStore is the pgxpool-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
	*Queries
}

// NewStore creates a PGStore over pool.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, Queries: New(pool)}
}

// BeginTx starts a database transaction. The returned Tx must be committed
// or rolled back; Rollback after Commit is a no-op.
func (s *PGStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx, Queries: s.Queries.WithTx(tx)}, nil
}

type pgTx struct {
	tx pgx.Tx
	*Queries
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
