package handler

import (
	"net/http"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/labstack/echo/v4"
)

// RefundRequest is the body of POST /api/orders/:id/refund.
type RefundRequest struct {
	Type        string `json:"type" validate:"required"`
	AmountCents int64  `json:"amount_cents,omitempty" validate:"min=0"`
	Reason      string `json:"reason" validate:"required"`
}

// RefundResponse is returned from a processed refund.
type RefundResponse struct {
	Refund RefundBody `json:"refund"`
}

// RefundBody describes the refund that was executed at the gateway.
type RefundBody struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	Type        string `json:"type"`
}

// RefundOrder handles POST /api/orders/:id/refund. Admin only.
func (h *Handler) RefundOrder(c echo.Context) error {
	const op = "handler.RefundOrder"

	var req RefundRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	detail, err := h.orders.RefundOrder(c.Request().Context(), service.RefundOrderParams{
		OrderID:     c.Param("id"),
		Type:        domain.RefundType(req.Type),
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
	})
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	record := detail.Refund
	if record == nil {
		return ErrorResponse(c, h.logger, domain.Errorf(domain.EINTERNAL, op, "refund record missing after refund"))
	}

	return c.JSON(http.StatusOK, RefundResponse{Refund: RefundBody{
		ID:          record.GatewayRefundID,
		AmountCents: record.AmountCents,
		Status:      record.GatewayStatus,
		Type:        string(record.Type),
	}})
}
