package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createInvoice = `
INSERT INTO invoices (order_id, number, pdf_url, due_date)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, number, pdf_url, due_date, sent_at, created_at
`

// CreateInvoiceParams contains parameters for creating an invoice.
// invoices.number carries a UNIQUE constraint, so a concurrent duplicate
// derivation fails here instead of persisting two invoices with one number.
type CreateInvoiceParams struct {
	OrderID pgtype.UUID
	Number  string
	PdfUrl  string
	DueDate pgtype.Date
}

func (q *Queries) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRow(ctx, createInvoice, params.OrderID, params.Number, params.PdfUrl, params.DueDate)
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OrderID, &inv.Number, &inv.PdfUrl, &inv.DueDate, &inv.SentAt, &inv.CreatedAt)
	return inv, err
}

const getInvoiceByOrder = `
SELECT id, order_id, number, pdf_url, due_date, sent_at, created_at
FROM invoices
WHERE order_id = $1
`

func (q *Queries) GetInvoiceByOrder(ctx context.Context, orderID pgtype.UUID) (Invoice, error) {
	row := q.db.QueryRow(ctx, getInvoiceByOrder, orderID)
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OrderID, &inv.Number, &inv.PdfUrl, &inv.DueDate, &inv.SentAt, &inv.CreatedAt)
	return inv, err
}

const getLastInvoiceNumber = `
SELECT number
FROM invoices
WHERE number LIKE $1
ORDER BY number DESC
LIMIT 1
`

// GetLastInvoiceNumber returns the lexicographically last invoice number
// matching yearPrefix (e.g. "INV-2026-%"). Numbers are zero-padded so
// lexicographic and numeric order agree.
func (q *Queries) GetLastInvoiceNumber(ctx context.Context, yearPrefix string) (string, error) {
	var number string
	err := q.db.QueryRow(ctx, getLastInvoiceNumber, yearPrefix).Scan(&number)
	return number, err
}
