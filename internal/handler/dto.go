package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderResponse is the external read model for one order.
type OrderResponse struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	ClientID      string  `json:"client_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	SubtotalCents int64   `json:"subtotal_cents"`
	TaxCents      int64   `json:"tax_cents"`
	TotalCents    int64   `json:"total_cents"`
	Currency      string  `json:"currency"`
	PaidAt        *string `json:"paid_at,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`

	Items    []OrderItemResponse     `json:"items"`
	Timeline []TimelineResponse      `json:"timeline"`
	Contract *ContractResponse       `json:"contract,omitempty"`
	Invoice  *InvoiceResponse        `json:"invoice,omitempty"`
	Refund   *domain.RefundRecord    `json:"refund,omitempty"`
}

// OrderItemResponse is one order line.
type OrderItemResponse struct {
	ServiceTemplateID string `json:"service_template_id"`
	ServiceName       string `json:"service_name"`
	Quantity          int32  `json:"quantity"`
	UnitPriceCents    int64  `json:"unit_price_cents"`
	TotalCents        int64  `json:"total_cents"`
}

// TimelineResponse is one audit entry.
type TimelineResponse struct {
	Status      string `json:"status"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CompletedAt string `json:"completed_at"`
}

// ContractResponse is the contract state for an order. TemplateContent is
// included so clients can render the document to sign.
type ContractResponse struct {
	ID              string  `json:"id"`
	TemplateContent string  `json:"template_content"`
	Signed          bool    `json:"signed"`
	SignedAt        *string `json:"signed_at,omitempty"`
	SignedByName    string  `json:"signed_by_name,omitempty"`
}

// InvoiceResponse is a generated invoice.
type InvoiceResponse struct {
	ID      string `json:"id"`
	Number  string `json:"number"`
	PdfURL  string `json:"pdf_url"`
	DueDate string `json:"due_date"`
}

func toOrderResponse(detail *service.OrderDetail) OrderResponse {
	order := detail.Order
	resp := OrderResponse{
		ID:            uuidText(order.ID),
		OrderNumber:   order.OrderNumber,
		ClientID:      uuidText(order.ClientID),
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		PaidAt:        timestampText(order.PaidAt),
		CompletedAt:   timestampText(order.CompletedAt),
		CreatedAt:     order.CreatedAt.Time.Format(time.RFC3339),
		Items:         make([]OrderItemResponse, 0, len(detail.Items)),
		Timeline:      make([]TimelineResponse, 0, len(detail.Timeline)),
		Refund:        detail.Refund,
	}

	for _, item := range detail.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ServiceTemplateID: uuidText(item.ServiceTemplateID),
			ServiceName:       item.ServiceName,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			TotalCents:        item.TotalCents,
		})
	}
	for _, entry := range detail.Timeline {
		resp.Timeline = append(resp.Timeline, TimelineResponse{
			Status:      entry.Status,
			Title:       entry.Title,
			Description: entry.Description.String,
			CompletedAt: entry.CompletedAt.Time.Format(time.RFC3339),
		})
	}
	if detail.Contract != nil {
		resp.Contract = &ContractResponse{
			ID:              uuidText(detail.Contract.ID),
			TemplateContent: detail.Contract.TemplateContent,
			Signed:          detail.Contract.SignedAt.Valid,
			SignedAt:        timestampText(detail.Contract.SignedAt),
			SignedByName:    detail.Contract.SignedByName.String,
		}
	}
	if detail.Invoice != nil {
		resp.Invoice = &InvoiceResponse{
			ID:      uuidText(detail.Invoice.ID),
			Number:  detail.Invoice.Number,
			PdfURL:  detail.Invoice.PdfUrl,
			DueDate: detail.Invoice.DueDate.Time.Format("2006-01-02"),
		}
	}
	return resp
}

func uuidText(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func timestampText(ts pgtype.Timestamptz) *string {
	if !ts.Valid {
		return nil
	}
	s := ts.Time.Format(time.RFC3339)
	return &s
}

func endpointResponse(ep repository.WebhookEndpoint) map[string]any {
	return map[string]any{
		"id":         uuidText(ep.ID),
		"name":       ep.Name,
		"url":        ep.Url,
		"events":     ep.Events,
		"active":     ep.Active,
		"created_at": ep.CreatedAt.Time.Format(time.RFC3339),
	}
}
