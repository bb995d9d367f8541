package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createServiceContract = `
INSERT INTO service_contracts (order_id, template_content)
VALUES ($1, $2)
ON CONFLICT (order_id) DO NOTHING
RETURNING id, order_id, template_content, signed_at, signature_data, signed_by_name, signed_by_email, ip_address, created_at
`

// CreateServiceContractParams contains parameters for materializing an
// order's contract from its template. The insert is idempotent per order.
type CreateServiceContractParams struct {
	OrderID         pgtype.UUID
	TemplateContent string
}

func (q *Queries) CreateServiceContract(ctx context.Context, params CreateServiceContractParams) (ServiceContract, error) {
	row := q.db.QueryRow(ctx, createServiceContract, params.OrderID, params.TemplateContent)
	var c ServiceContract
	err := row.Scan(&c.ID, &c.OrderID, &c.TemplateContent, &c.SignedAt, &c.SignatureData,
		&c.SignedByName, &c.SignedByEmail, &c.IPAddress, &c.CreatedAt)
	return c, err
}

const getContractByOrder = `
SELECT id, order_id, template_content, signed_at, signature_data, signed_by_name, signed_by_email, ip_address, created_at
FROM service_contracts
WHERE order_id = $1
`

func (q *Queries) GetContractByOrder(ctx context.Context, orderID pgtype.UUID) (ServiceContract, error) {
	row := q.db.QueryRow(ctx, getContractByOrder, orderID)
	var c ServiceContract
	err := row.Scan(&c.ID, &c.OrderID, &c.TemplateContent, &c.SignedAt, &c.SignatureData,
		&c.SignedByName, &c.SignedByEmail, &c.IPAddress, &c.CreatedAt)
	return c, err
}

const signServiceContract = `
UPDATE service_contracts
SET signed_at       = $2,
    signature_data  = $3,
    signed_by_name  = $4,
    signed_by_email = $5,
    ip_address      = $6
WHERE id = $1 AND signed_at IS NULL
`

// SignServiceContractParams contains parameters for recording a signature.
// The WHERE clause enforces that signed contracts are immutable; callers
// must treat zero rows affected as a conflict.
type SignServiceContractParams struct {
	ID            pgtype.UUID
	SignedAt      pgtype.Timestamptz
	SignatureData pgtype.Text
	SignedByName  pgtype.Text
	SignedByEmail pgtype.Text
	IPAddress     pgtype.Text
}

func (q *Queries) SignServiceContract(ctx context.Context, params SignServiceContractParams) error {
	tag, err := q.db.Exec(ctx, signServiceContract,
		params.ID, params.SignedAt, params.SignatureData,
		params.SignedByName, params.SignedByEmail, params.IPAddress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContractAlreadySigned
	}
	return nil
}
