package handler

import (
	"net/http"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/labstack/echo/v4"
)

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(c echo.Context) error {
	const op = "handler.GetOrder"

	detail, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	if err := h.authorizeOrderAccess(c, detail, op); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, toOrderResponse(detail))
}

// SignContractRequest is the body of POST /api/orders/:id/contract/sign.
type SignContractRequest struct {
	SignedByName  string `json:"signed_by_name" validate:"required"`
	SignedByEmail string `json:"signed_by_email" validate:"omitempty,email"`
	SignatureData string `json:"signature_data" validate:"required"`
}

// SignContract handles POST /api/orders/:id/contract/sign.
func (h *Handler) SignContract(c echo.Context) error {
	const op = "handler.SignContract"

	var req SignContractRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	detail, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	if err := h.authorizeOrderAccess(c, detail, op); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	detail, err = h.orders.SignContract(c.Request().Context(), service.SignContractParams{
		OrderID:       c.Param("id"),
		SignedByName:  req.SignedByName,
		SignedByEmail: req.SignedByEmail,
		SignatureData: req.SignatureData,
		IPAddress:     c.RealIP(),
	})
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, toOrderResponse(detail))
}

// authorizeOrderAccess restricts client principals to their own orders.
// Staff and admin see everything.
func (h *Handler) authorizeOrderAccess(c echo.Context, detail *service.OrderDetail, op string) error {
	user, ok := middleware.Principal(c)
	if !ok {
		return domain.Unauthorized(op, "authentication required")
	}
	if user.Role == domain.RoleClient && user.ClientID != detail.Order.ClientID {
		// Hide existence of other clients' orders.
		return domain.NotFound(op, "order", c.Param("id"))
	}
	return nil
}
