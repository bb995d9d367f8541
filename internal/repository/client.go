package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createClient = `
INSERT INTO clients (name, business_name, email)
VALUES ($1, $2, $3)
RETURNING id, name, business_name, email, lifetime_value_cents, total_orders,
          first_order_date, last_order_date, created_at, updated_at
`

// CreateClientParams contains parameters for creating a client.
type CreateClientParams struct {
	Name         string
	BusinessName pgtype.Text
	Email        string
}

func (q *Queries) CreateClient(ctx context.Context, params CreateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, createClient, params.Name, params.BusinessName, params.Email)
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.BusinessName, &c.Email, &c.LifetimeValueCents,
		&c.TotalOrders, &c.FirstOrderDate, &c.LastOrderDate, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getClient = `
SELECT id, name, business_name, email, lifetime_value_cents, total_orders,
       first_order_date, last_order_date, created_at, updated_at
FROM clients
WHERE id = $1
`

func (q *Queries) GetClient(ctx context.Context, id pgtype.UUID) (Client, error) {
	row := q.db.QueryRow(ctx, getClient, id)
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.BusinessName, &c.Email, &c.LifetimeValueCents,
		&c.TotalOrders, &c.FirstOrderDate, &c.LastOrderDate, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const applyOrderCompletion = `
UPDATE clients
SET lifetime_value_cents = lifetime_value_cents + $2,
    total_orders         = total_orders + 1,
    first_order_date     = COALESCE(first_order_date, $3),
    last_order_date      = $3,
    updated_at           = now()
WHERE id = $1
`

// ApplyOrderCompletionParams contains parameters for the atomic client
// aggregate update on order completion.
type ApplyOrderCompletionParams struct {
	ClientID    pgtype.UUID
	AmountCents int64
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) ApplyOrderCompletion(ctx context.Context, params ApplyOrderCompletionParams) error {
	_, err := q.db.Exec(ctx, applyOrderCompletion, params.ClientID, params.AmountCents, params.CompletedAt)
	return err
}

const decrementClientLifetimeValue = `
UPDATE clients
SET lifetime_value_cents = GREATEST(lifetime_value_cents - $2, 0),
    updated_at           = now()
WHERE id = $1
`

// DecrementClientLifetimeValueParams contains parameters for the full-refund
// lifetime value decrement. GREATEST keeps the aggregate non-negative.
type DecrementClientLifetimeValueParams struct {
	ClientID    pgtype.UUID
	AmountCents int64
}

func (q *Queries) DecrementClientLifetimeValue(ctx context.Context, params DecrementClientLifetimeValueParams) error {
	_, err := q.db.Exec(ctx, decrementClientLifetimeValue, params.ClientID, params.AmountCents)
	return err
}
