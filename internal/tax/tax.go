package tax

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for order line items.
	// Returns tax amount in cents.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	LineItems     []LineItem
	SubtotalCents int64
}

// LineItem represents a single service line being taxed.
type LineItem struct {
	TemplateID  pgtype.UUID
	Description string
	Quantity    int32
	UnitPrice   int64
	TotalPrice  int64
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTaxCents int64
	Breakdown     []TaxBreakdown
	IsEstimate    bool
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Jurisdiction string
	Name         string
	Rate         float64
	AmountCents  int64
}
