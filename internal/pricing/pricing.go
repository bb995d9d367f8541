package pricing

import (
	"context"
	"fmt"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/tax"
	"github.com/jackc/pgx/v5/pgtype"
)

// RequestedItem is a service template and quantity requested at checkout.
type RequestedItem struct {
	TemplateID pgtype.UUID
	Quantity   int32
}

// Line is a priced order line with the template fields snapshotted
// at purchase time. Later edits to the template never change it.
type Line struct {
	TemplateID       pgtype.UUID
	Name             string
	UnitPriceCents   int64
	Quantity         int32
	TotalCents       int64
	RequiresContract bool
	ContractTemplate string
}

// Quote is the fully priced result of a checkout request.
type Quote struct {
	Lines         []Line
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64

	// RequiresContract is true when any line's template requires one.
	RequiresContract bool
}

// Pricer builds immutable price snapshots from service templates.
type Pricer interface {
	// Quote validates the requested items against their templates and
	// returns priced lines with subtotal, tax and total.
	Quote(ctx context.Context, templates []repository.ServiceTemplate, items []RequestedItem) (*Quote, error)
}

type pricer struct {
	calculator tax.Calculator
}

// NewPricer creates a Pricer using the given tax calculator.
func NewPricer(calculator tax.Calculator) (Pricer, error) {
	if calculator == nil {
		return nil, fmt.Errorf("tax calculator is required")
	}
	return &pricer{calculator: calculator}, nil
}

func (p *pricer) Quote(ctx context.Context, templates []repository.ServiceTemplate, items []RequestedItem) (*Quote, error) {
	const op = "pricing.Quote"

	if len(items) == 0 {
		return nil, domain.Invalid(op, "at least one item is required")
	}

	byID := make(map[[16]byte]repository.ServiceTemplate, len(templates))
	for _, t := range templates {
		byID[t.ID.Bytes] = t
	}

	quote := &Quote{Lines: make([]Line, 0, len(items))}
	var validation error

	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)

		tpl, ok := byID[item.TemplateID.Bytes]
		if !ok {
			validation = domain.AddFieldError(validation, field, "service template not found")
			continue
		}
		if !tpl.IsPurchasable {
			validation = domain.AddFieldError(validation, field, fmt.Sprintf("%s is not available for purchase", tpl.Name))
			continue
		}
		if !tpl.PriceCents.Valid {
			validation = domain.AddFieldError(validation, field, fmt.Sprintf("%s has no price set", tpl.Name))
			continue
		}
		if item.Quantity < 1 {
			validation = domain.AddFieldError(validation, field, "quantity must be at least 1")
			continue
		}
		if tpl.MaxQuantity > 0 && item.Quantity > tpl.MaxQuantity {
			validation = domain.AddFieldError(validation, field, fmt.Sprintf("quantity exceeds maximum of %d", tpl.MaxQuantity))
			continue
		}

		unitPrice := tpl.PriceCents.Int64
		line := Line{
			TemplateID:       tpl.ID,
			Name:             tpl.Name,
			UnitPriceCents:   unitPrice,
			Quantity:         item.Quantity,
			TotalCents:       unitPrice * int64(item.Quantity),
			RequiresContract: tpl.RequiresContract,
			ContractTemplate: tpl.ContractTemplate.String,
		}
		quote.Lines = append(quote.Lines, line)
		quote.SubtotalCents += line.TotalCents
		if line.RequiresContract {
			quote.RequiresContract = true
		}
	}

	if validation != nil {
		return nil, validation
	}

	taxLines := make([]tax.LineItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		taxLines = append(taxLines, tax.LineItem{
			TemplateID:  line.TemplateID,
			Description: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPriceCents,
			TotalPrice:  line.TotalCents,
		})
	}

	taxResult, err := p.calculator.CalculateTax(ctx, tax.TaxParams{
		LineItems:     taxLines,
		SubtotalCents: quote.SubtotalCents,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "tax calculation failed")
	}

	quote.TaxCents = taxResult.TotalTaxCents
	quote.TotalCents = quote.SubtotalCents + quote.TaxCents

	return quote, nil
}
