package tax

import "context"

// NoTaxCalculator returns zero tax for all calculations.
// Services billed through the platform are untaxed by default.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() Calculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero tax.
func (c *NoTaxCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	return &TaxResult{
		TotalTaxCents: 0,
		Breakdown:     nil,
		IsEstimate:    false,
	}, nil
}
