package handler

import (
	"net/http"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/labstack/echo/v4"
)

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	// ClientID may only be set by staff ordering on a client's behalf.
	// For client principals it is taken from the session.
	ClientID      string                `json:"client_id,omitempty"`
	CustomerEmail string                `json:"customer_email,omitempty" validate:"omitempty,email"`
	Items         []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CheckoutItemRequest is one requested line.
type CheckoutItemRequest struct {
	ServiceTemplateID string `json:"service_template_id" validate:"required"`
	Quantity          int32  `json:"quantity" validate:"min=1"`
}

// CheckoutResponse is returned on successful order creation.
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalCents  int64  `json:"total_cents"`
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// Checkout handles POST /api/checkout.
func (h *Handler) Checkout(c echo.Context) error {
	const op = "handler.Checkout"

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid request body"))
	}

	clientID, err := h.resolveClientID(c, req.ClientID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	params := service.CreateOrderParams{
		ClientID:      clientID,
		CustomerEmail: req.CustomerEmail,
		Items:         make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		params.Items = append(params.Items, service.OrderItemInput{
			ServiceTemplateID: item.ServiceTemplateID,
			Quantity:          item.Quantity,
		})
	}

	result, err := h.orders.CreateOrder(c.Request().Context(), params)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusCreated, CheckoutResponse{
		OrderID:     uuidText(result.Order.ID),
		OrderNumber: result.Order.OrderNumber,
		TotalCents:  result.Order.TotalCents,
		CheckoutURL: result.CheckoutURL,
		SessionID:   result.SessionID,
	})
}

// resolveClientID picks the client an order or cart action acts on. Client
// principals always act on their own client record; staff must name one.
func (h *Handler) resolveClientID(c echo.Context, requested, op string) (string, error) {
	user, ok := middleware.Principal(c)
	if !ok {
		return "", domain.Unauthorized(op, "authentication required")
	}
	if user.Role == domain.RoleClient {
		if !user.ClientID.Valid {
			return "", domain.Forbidden(op, "principal has no client record")
		}
		return uuidText(user.ClientID), nil
	}
	if requested == "" {
		return "", domain.Invalid(op, "client_id is required")
	}
	return requested, nil
}
