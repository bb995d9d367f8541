package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertDailyMetrics = `
INSERT INTO sales_metrics (day, revenue_cents, order_count, avg_order_value_cents, new_customers, refund_amount_cents, contracts_signed)
VALUES ($1, $2, $3, CASE WHEN $3 > 0 THEN $2 / $3 ELSE 0 END, $4, $5, $6)
ON CONFLICT (day) DO UPDATE SET
    revenue_cents       = sales_metrics.revenue_cents + EXCLUDED.revenue_cents,
    order_count         = sales_metrics.order_count + EXCLUDED.order_count,
    avg_order_value_cents = CASE
        WHEN sales_metrics.order_count + EXCLUDED.order_count > 0
        THEN (sales_metrics.revenue_cents + EXCLUDED.revenue_cents) / (sales_metrics.order_count + EXCLUDED.order_count)
        ELSE 0
    END,
    new_customers       = sales_metrics.new_customers + EXCLUDED.new_customers,
    refund_amount_cents = sales_metrics.refund_amount_cents + EXCLUDED.refund_amount_cents,
    contracts_signed    = sales_metrics.contracts_signed + EXCLUDED.contracts_signed
`

// UpsertDailyMetricsParams contains the per-day increments. The upsert is a
// single atomic statement so concurrent order completions on the same day
// cannot lose updates; nothing here overwrites an existing counter.
type UpsertDailyMetricsParams struct {
	Day               pgtype.Date
	RevenueCents      int64
	OrderCount        int32
	NewCustomers      int32
	RefundAmountCents int64
	ContractsSigned   int32
}

func (q *Queries) UpsertDailyMetrics(ctx context.Context, params UpsertDailyMetricsParams) error {
	_, err := q.db.Exec(ctx, upsertDailyMetrics,
		params.Day, params.RevenueCents, params.OrderCount,
		params.NewCustomers, params.RefundAmountCents, params.ContractsSigned)
	return err
}

const getDailyMetrics = `
SELECT day, revenue_cents, order_count, avg_order_value_cents, new_customers, refund_amount_cents, contracts_signed
FROM sales_metrics
WHERE day = $1
`

func (q *Queries) GetDailyMetrics(ctx context.Context, day pgtype.Date) (SalesMetrics, error) {
	row := q.db.QueryRow(ctx, getDailyMetrics, day)
	var m SalesMetrics
	err := row.Scan(&m.Day, &m.RevenueCents, &m.OrderCount, &m.AvgOrderValueCents,
		&m.NewCustomers, &m.RefundAmountCents, &m.ContractsSigned)
	return m, err
}
