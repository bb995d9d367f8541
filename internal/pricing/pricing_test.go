package pricing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/pricing"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/tax"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pgUUID(t *testing.T) pgtype.UUID {
	t.Helper()
	id := uuid.New()
	return pgtype.UUID{Bytes: id, Valid: true}
}

func purchasableTemplate(t *testing.T, name string, priceCents int64) repository.ServiceTemplate {
	t.Helper()
	return repository.ServiceTemplate{
		ID:            pgUUID(t),
		Name:          name,
		PriceCents:    pgtype.Int8{Int64: priceCents, Valid: true},
		IsPurchasable: true,
		MaxQuantity:   10,
	}
}

func TestQuote_SingleLine(t *testing.T) {
	p, err := pricing.NewPricer(tax.NewNoTaxCalculator())
	require.NoError(t, err)

	tpl := purchasableTemplate(t, "Brand Strategy Package", 250000)

	quote, err := p.Quote(context.Background(),
		[]repository.ServiceTemplate{tpl},
		[]pricing.RequestedItem{{TemplateID: tpl.ID, Quantity: 2}},
	)

	require.NoError(t, err)
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, int64(250000), quote.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(500000), quote.Lines[0].TotalCents)
	assert.Equal(t, int64(500000), quote.SubtotalCents)
	assert.Equal(t, int64(0), quote.TaxCents)
	assert.Equal(t, int64(500000), quote.TotalCents)
	assert.False(t, quote.RequiresContract)
}

func TestQuote_SnapshotsTemplateFields(t *testing.T) {
	p, err := pricing.NewPricer(tax.NewNoTaxCalculator())
	require.NoError(t, err)

	tpl := purchasableTemplate(t, "Social Media Retainer", 150000)
	tpl.RequiresContract = true
	tpl.ContractTemplate = pgtype.Text{String: "Standard services agreement.", Valid: true}

	quote, err := p.Quote(context.Background(),
		[]repository.ServiceTemplate{tpl},
		[]pricing.RequestedItem{{TemplateID: tpl.ID, Quantity: 1}},
	)

	require.NoError(t, err)
	line := quote.Lines[0]
	assert.Equal(t, "Social Media Retainer", line.Name)
	assert.Equal(t, "Standard services agreement.", line.ContractTemplate)
	assert.True(t, line.RequiresContract)
	assert.True(t, quote.RequiresContract)
}

func TestQuote_AppliesTax(t *testing.T) {
	p, err := pricing.NewPricer(tax.NewPercentageCalculator(0.10))
	require.NoError(t, err)

	tpl := purchasableTemplate(t, "Logo Design", 80000)

	quote, err := p.Quote(context.Background(),
		[]repository.ServiceTemplate{tpl},
		[]pricing.RequestedItem{{TemplateID: tpl.ID, Quantity: 1}},
	)

	require.NoError(t, err)
	assert.Equal(t, int64(80000), quote.SubtotalCents)
	assert.Equal(t, int64(8000), quote.TaxCents)
	assert.Equal(t, int64(88000), quote.TotalCents)
}

func TestQuote_ValidationFailures(t *testing.T) {
	notPurchasable := purchasableTemplate(t, "Internal Audit", 50000)
	notPurchasable.IsPurchasable = false

	noPrice := purchasableTemplate(t, "Custom Engagement", 0)
	noPrice.PriceCents = pgtype.Int8{}

	limited := purchasableTemplate(t, "Consulting Hour", 20000)
	limited.MaxQuantity = 3

	tests := []struct {
		name      string
		templates []repository.ServiceTemplate
		items     []pricing.RequestedItem
	}{
		{
			name:      "no items",
			templates: nil,
			items:     nil,
		},
		{
			name:      "unknown template",
			templates: nil,
			items:     []pricing.RequestedItem{{TemplateID: pgUUID(t), Quantity: 1}},
		},
		{
			name:      "not purchasable",
			templates: []repository.ServiceTemplate{notPurchasable},
			items:     []pricing.RequestedItem{{TemplateID: notPurchasable.ID, Quantity: 1}},
		},
		{
			name:      "no price set",
			templates: []repository.ServiceTemplate{noPrice},
			items:     []pricing.RequestedItem{{TemplateID: noPrice.ID, Quantity: 1}},
		},
		{
			name:      "zero quantity",
			templates: []repository.ServiceTemplate{limited},
			items:     []pricing.RequestedItem{{TemplateID: limited.ID, Quantity: 0}},
		},
		{
			name:      "quantity over maximum",
			templates: []repository.ServiceTemplate{limited},
			items:     []pricing.RequestedItem{{TemplateID: limited.ID, Quantity: 4}},
		},
	}

	p, err := pricing.NewPricer(tax.NewNoTaxCalculator())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Quote(context.Background(), tt.templates, tt.items)
			require.Error(t, err)
			if tt.name != "no items" {
				assert.True(t, domain.IsValidationError(err), "expected validation error, got %v", err)
			}
		})
	}
}

func TestQuote_CollectsAllFieldErrors(t *testing.T) {
	p, err := pricing.NewPricer(tax.NewNoTaxCalculator())
	require.NoError(t, err)

	notPurchasable := purchasableTemplate(t, "Internal Audit", 50000)
	notPurchasable.IsPurchasable = false

	_, err = p.Quote(context.Background(),
		[]repository.ServiceTemplate{notPurchasable},
		[]pricing.RequestedItem{
			{TemplateID: notPurchasable.ID, Quantity: 1},
			{TemplateID: pgUUID(t), Quantity: 1},
		},
	)

	require.Error(t, err)
	fields := domain.GetValidationFields(err)
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "items[0]")
	assert.Contains(t, fields, "items[1]")
}
