package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createWebhookEndpoint = `
INSERT INTO webhook_endpoints (name, url, secret, headers, events, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, url, secret, headers, events, active, created_at
`

// CreateWebhookEndpointParams contains parameters for registering an
// outbound webhook target.
type CreateWebhookEndpointParams struct {
	Name    string
	Url     string
	Secret  pgtype.Text
	Headers []byte
	Events  []string
	Active  bool
}

func (q *Queries) CreateWebhookEndpoint(ctx context.Context, params CreateWebhookEndpointParams) (WebhookEndpoint, error) {
	row := q.db.QueryRow(ctx, createWebhookEndpoint,
		params.Name, params.Url, params.Secret, params.Headers, params.Events, params.Active)
	var ep WebhookEndpoint
	err := row.Scan(&ep.ID, &ep.Name, &ep.Url, &ep.Secret, &ep.Headers, &ep.Events, &ep.Active, &ep.CreatedAt)
	return ep, err
}

const listActiveWebhookEndpoints = `
SELECT id, name, url, secret, headers, events, active, created_at
FROM webhook_endpoints
WHERE active
ORDER BY created_at
`

func (q *Queries) ListActiveWebhookEndpoints(ctx context.Context) ([]WebhookEndpoint, error) {
	rows, err := q.db.Query(ctx, listActiveWebhookEndpoints)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []WebhookEndpoint
	for rows.Next() {
		var ep WebhookEndpoint
		if err := rows.Scan(&ep.ID, &ep.Name, &ep.Url, &ep.Secret, &ep.Headers,
			&ep.Events, &ep.Active, &ep.CreatedAt); err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

const createWebhookExecution = `
INSERT INTO webhook_executions (endpoint_id, event, payload, status_code, response, error, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// CreateWebhookExecutionParams contains parameters for logging one delivery
// attempt. Either StatusCode/Response or Error is set, never both.
type CreateWebhookExecutionParams struct {
	EndpointID pgtype.UUID
	Event      string
	Payload    []byte
	StatusCode pgtype.Int4
	Response   pgtype.Text
	Error      pgtype.Text
	DurationMs int64
}

func (q *Queries) CreateWebhookExecution(ctx context.Context, params CreateWebhookExecutionParams) error {
	_, err := q.db.Exec(ctx, createWebhookExecution,
		params.EndpointID, params.Event, params.Payload,
		params.StatusCode, params.Response, params.Error, params.DurationMs)
	return err
}
