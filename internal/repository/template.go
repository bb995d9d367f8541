package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createServiceTemplate = `
INSERT INTO service_templates (name, price_cents, currency, is_purchasable, requires_contract, contract_template, max_quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, price_cents, currency, is_purchasable, requires_contract, contract_template, max_quantity, created_at
`

// CreateServiceTemplateParams contains parameters for creating a service template.
type CreateServiceTemplateParams struct {
	Name             string
	PriceCents       pgtype.Int8
	Currency         string
	IsPurchasable    bool
	RequiresContract bool
	ContractTemplate pgtype.Text
	MaxQuantity      int32
}

func (q *Queries) CreateServiceTemplate(ctx context.Context, params CreateServiceTemplateParams) (ServiceTemplate, error) {
	row := q.db.QueryRow(ctx, createServiceTemplate,
		params.Name, params.PriceCents, params.Currency, params.IsPurchasable,
		params.RequiresContract, params.ContractTemplate, params.MaxQuantity)
	var t ServiceTemplate
	err := row.Scan(&t.ID, &t.Name, &t.PriceCents, &t.Currency, &t.IsPurchasable,
		&t.RequiresContract, &t.ContractTemplate, &t.MaxQuantity, &t.CreatedAt)
	return t, err
}

const getServiceTemplate = `
SELECT id, name, price_cents, currency, is_purchasable, requires_contract, contract_template, max_quantity, created_at
FROM service_templates
WHERE id = $1
`

func (q *Queries) GetServiceTemplate(ctx context.Context, id pgtype.UUID) (ServiceTemplate, error) {
	row := q.db.QueryRow(ctx, getServiceTemplate, id)
	var t ServiceTemplate
	err := row.Scan(&t.ID, &t.Name, &t.PriceCents, &t.Currency, &t.IsPurchasable,
		&t.RequiresContract, &t.ContractTemplate, &t.MaxQuantity, &t.CreatedAt)
	return t, err
}

const getServiceTemplatesByIDs = `
SELECT id, name, price_cents, currency, is_purchasable, requires_contract, contract_template, max_quantity, created_at
FROM service_templates
WHERE id = ANY($1)
`

func (q *Queries) GetServiceTemplatesByIDs(ctx context.Context, ids []pgtype.UUID) ([]ServiceTemplate, error) {
	rows, err := q.db.Query(ctx, getServiceTemplatesByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []ServiceTemplate
	for rows.Next() {
		var t ServiceTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.PriceCents, &t.Currency, &t.IsPurchasable,
			&t.RequiresContract, &t.ContractTemplate, &t.MaxQuantity, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
