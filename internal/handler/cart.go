package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
)

// CartItemRequest is the body of POST /api/cart.
type CartItemRequest struct {
	ClientID          string `json:"client_id,omitempty"`
	ServiceTemplateID string `json:"service_template_id" validate:"required"`
	Quantity          int32  `json:"quantity" validate:"min=1"`
}

// CartItemResponse is one saved cart line.
type CartItemResponse struct {
	ServiceTemplateID string `json:"service_template_id"`
	Quantity          int32  `json:"quantity"`
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(c echo.Context) error {
	const op = "handler.GetCart"

	clientID, err := h.resolveClientID(c, c.QueryParam("client_id"), op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	id, err := parseClientID(clientID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	items, err := h.repo.GetCartItems(c.Request().Context(), id)
	if err != nil {
		return ErrorResponse(c, h.logger, domain.Internal(err, op, "failed to load cart"))
	}

	resp := make([]CartItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, CartItemResponse{
			ServiceTemplateID: uuidText(item.ServiceTemplateID),
			Quantity:          item.Quantity,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": resp})
}

// AddCartItem handles POST /api/cart. Adding a template already in the cart
// replaces its quantity.
func (h *Handler) AddCartItem(c echo.Context) error {
	const op = "handler.AddCartItem"

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid(op, "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	clientID, err := h.resolveClientID(c, req.ClientID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	id, err := parseClientID(clientID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	templateID, err := parseTemplateID(req.ServiceTemplateID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	err = h.repo.AddCartItem(c.Request().Context(), repository.AddCartItemParams{
		ClientID:          id,
		ServiceTemplateID: templateID,
		Quantity:          req.Quantity,
	})
	if err != nil {
		return ErrorResponse(c, h.logger, domain.Internal(err, op, "failed to save cart item"))
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(c echo.Context) error {
	const op = "handler.ClearCart"

	clientID, err := h.resolveClientID(c, c.QueryParam("client_id"), op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}
	id, err := parseClientID(clientID, op)
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	if err := h.repo.ClearCart(c.Request().Context(), id); err != nil {
		return ErrorResponse(c, h.logger, domain.Internal(err, op, "failed to clear cart"))
	}
	return c.NoContent(http.StatusNoContent)
}

func parseClientID(raw, op string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, domain.Invalid(op, "invalid client id")
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func parseTemplateID(raw, op string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, domain.Invalid(op, "invalid service template id")
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
