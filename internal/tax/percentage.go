package tax

import (
	"context"
	"math"
)

// PercentageCalculator calculates tax using a flat percentage rate.
type PercentageCalculator struct {
	rate float64 // e.g., 0.08 for 8%
}

// NewPercentageCalculator creates a new percentage-based tax calculator.
func NewPercentageCalculator(rate float64) Calculator {
	return &PercentageCalculator{rate: rate}
}

// CalculateTax computes tax on the order subtotal using the configured rate.
// Results are rounded half away from zero to the nearest cent.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	if c.rate < 0 {
		return nil, &TaxError{Code: codeInvalid, Message: "tax rate cannot be negative"}
	}

	taxCents := int64(math.Round(float64(params.SubtotalCents) * c.rate))

	result := &TaxResult{
		TotalTaxCents: taxCents,
		IsEstimate:    false,
	}
	if c.rate > 0 {
		result.Breakdown = []TaxBreakdown{
			{
				Jurisdiction: "state",
				Name:         "Default Sales Tax",
				Rate:         c.rate,
				AmountCents:  taxCents,
			},
		}
	}
	return result, nil
}
