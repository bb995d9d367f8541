package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// InvoiceNumbering controls invoice number derivation.
type InvoiceNumbering struct {
	// Prefix is the literal prefix, e.g. "INV".
	Prefix string

	// StartNumber is the first sequence number issued each year.
	StartNumber int
}

// InvoiceService generates invoices for completed orders.
type InvoiceService interface {
	// GenerateInvoice creates the invoice for a completed order, or returns
	// the existing one. Numbers are sequential per calendar year. The queries
	// argument lets the caller run this inside its own transaction.
	GenerateInvoice(ctx context.Context, queries repository.Querier, order repository.Order) (repository.Invoice, error)

	// GetInvoice returns the invoice for an order.
	GetInvoice(ctx context.Context, orderID pgtype.UUID) (repository.Invoice, error)
}

type invoiceService struct {
	repo      repository.Querier
	numbering InvoiceNumbering
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(repo repository.Querier, numbering InvoiceNumbering) (InvoiceService, error) {
	if numbering.Prefix == "" {
		numbering.Prefix = "INV"
	}
	if numbering.StartNumber <= 0 {
		numbering.StartNumber = 1000
	}
	return &invoiceService{repo: repo, numbering: numbering}, nil
}

// invoiceDueDays is the payment window recorded on generated invoices.
const invoiceDueDays = 30

func (s *invoiceService) GenerateInvoice(ctx context.Context, queries repository.Querier, order repository.Order) (repository.Invoice, error) {
	const op = "invoice.generate"

	if queries == nil {
		queries = s.repo
	}

	existing, err := queries.GetInvoiceByOrder(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return repository.Invoice{}, domain.Internal(err, op, "failed to look up invoice")
	}

	issuedAt := time.Now().UTC()
	if order.PaidAt.Valid {
		issuedAt = order.PaidAt.Time.UTC()
	}

	number, err := s.nextNumber(ctx, queries, issuedAt.Year())
	if err != nil {
		return repository.Invoice{}, domain.Internal(err, op, "failed to derive invoice number")
	}

	invoice, err := queries.CreateInvoice(ctx, repository.CreateInvoiceParams{
		OrderID: order.ID,
		Number:  number,
		PdfUrl:  fmt.Sprintf("/invoices/%s.pdf", number),
		DueDate: pgtype.Date{Time: issuedAt.AddDate(0, 0, invoiceDueDays), Valid: true},
	})
	if err != nil {
		// A concurrent generation for another order can win the race on the
		// UNIQUE number. The caller's transaction retries the whole workflow.
		return repository.Invoice{}, domain.Internal(err, op, "failed to create invoice")
	}

	return invoice, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, orderID pgtype.UUID) (repository.Invoice, error) {
	const op = "invoice.get"

	invoice, err := s.repo.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Invoice{}, domain.NotFound(op, "invoice", uuidString(orderID))
		}
		return repository.Invoice{}, domain.Internal(err, op, "failed to load invoice")
	}
	return invoice, nil
}

// nextNumber derives the next sequential number for the given year.
// Format: PREFIX-YYYY-NNNN with NNNN zero-padded; the sequence resets to
// StartNumber each January.
func (s *invoiceService) nextNumber(ctx context.Context, queries repository.Querier, year int) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", s.numbering.Prefix, year)

	last, err := queries.GetLastInvoiceNumber(ctx, yearPrefix+"%")
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Sprintf("%s%04d", yearPrefix, s.numbering.StartNumber), nil
		}
		return "", err
	}

	seq, err := parseInvoiceSequence(last)
	if err != nil {
		return "", fmt.Errorf("malformed invoice number %q: %w", last, err)
	}

	return fmt.Sprintf("%s%04d", yearPrefix, seq+1), nil
}

func parseInvoiceSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("missing sequence segment")
	}
	return strconv.Atoi(number[idx+1:])
}
