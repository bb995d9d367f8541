package handler

import (
	"net/http"

	"github.com/hollisdev/agencydesk/internal/billing"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/hollisdev/agencydesk/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler holds the HTTP surface of the API.
type Handler struct {
	orders  service.OrderService
	billing billing.Provider
	repo    repository.Store
	metrics *telemetry.BusinessMetrics
	logger  zerolog.Logger
}

// New constructs the API handler.
func New(orders service.OrderService, provider billing.Provider, repo repository.Store, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) (*Handler, error) {
	if orders == nil {
		return nil, domain.Errorf(domain.EINTERNAL, "handler.New", "order service is required")
	}
	if provider == nil {
		return nil, domain.Errorf(domain.EINTERNAL, "handler.New", "billing provider is required")
	}
	if repo == nil {
		return nil, domain.Errorf(domain.EINTERNAL, "handler.New", "repository is required")
	}
	return &Handler{
		orders:  orders,
		billing: provider,
		repo:    repo,
		metrics: metrics,
		logger:  logger.With().Str("component", "handler").Logger(),
	}, nil
}

// RegisterRoutes mounts every route on the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Gateway callbacks authenticate via signature, not session.
	e.POST("/webhooks/stripe", h.StripeWebhook)

	api := e.Group("/api", middleware.WithUser(h.repo))

	authed := api.Group("", middleware.RequireRole(domain.RoleAdmin, domain.RoleStaff, domain.RoleClient))
	authed.POST("/checkout", h.Checkout)
	authed.GET("/orders/:id", h.GetOrder)
	authed.POST("/orders/:id/contract/sign", h.SignContract)
	authed.GET("/cart", h.GetCart)
	authed.POST("/cart", h.AddCartItem)
	authed.DELETE("/cart", h.ClearCart)

	admin := api.Group("", middleware.RequireRole(domain.RoleAdmin))
	admin.POST("/orders/:id/refund", h.RefundOrder)
	admin.POST("/webhook-endpoints", h.CreateWebhookEndpoint)
	admin.GET("/webhook-endpoints", h.ListWebhookEndpoints)
}

// Healthz reports process liveness.
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
