package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_ClientOrdersForThemselves(t *testing.T) {
	clientID := newTestUUID()
	orders := &mockOrderService{}
	h := newTestHandler(orders, nil, nil)

	// The body names a different client; the session must win.
	body := fmt.Sprintf(`{"client_id":"%s","items":[{"service_template_id":"%s","quantity":1}]}`,
		uuidText(newTestUUID()), uuidText(newTestUUID()))
	c, rec := newTestContext(http.MethodPost, "/api/checkout", body)
	middleware.SetPrincipal(c, clientUser(clientID))

	require.NoError(t, h.Checkout(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, orders.CallLog, 1)
	assert.Equal(t, fmt.Sprintf("CreateOrder(%s)", uuidText(clientID)), orders.CallLog[0])

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.Equal(t, "ORD-20260301-ABCDEF", resp.OrderNumber)
}

func TestCheckout_StaffMustNameClient(t *testing.T) {
	orders := &mockOrderService{}
	h := newTestHandler(orders, nil, nil)

	c, rec := newTestContext(http.MethodPost, "/api/checkout",
		`{"items":[{"service_template_id":"x","quantity":1}]}`)
	middleware.SetPrincipal(c, staffUser())

	require.NoError(t, h.Checkout(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, orders.CallLog)
}

func TestCheckout_StaffOrdersOnBehalf(t *testing.T) {
	clientID := newTestUUID()
	orders := &mockOrderService{}
	h := newTestHandler(orders, nil, nil)

	body := fmt.Sprintf(`{"client_id":"%s","items":[{"service_template_id":"%s","quantity":2}]}`,
		uuidText(clientID), uuidText(newTestUUID()))
	c, rec := newTestContext(http.MethodPost, "/api/checkout", body)
	middleware.SetPrincipal(c, staffUser())

	require.NoError(t, h.Checkout(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, orders.CallLog, 1)
	assert.Equal(t, fmt.Sprintf("CreateOrder(%s)", uuidText(clientID)), orders.CallLog[0])
}

func TestCheckout_Unauthenticated(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	c, rec := newTestContext(http.MethodPost, "/api/checkout", `{"items":[]}`)

	require.NoError(t, h.Checkout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckout_ServiceErrorIsMapped(t *testing.T) {
	orders := &mockOrderService{
		CreateOrderFunc: func(ctx context.Context, params service.CreateOrderParams) (*service.CheckoutResult, error) {
			return nil, domain.Gateway(assert.AnError, "order.create", "payment gateway unavailable")
		},
	}
	h := newTestHandler(orders, nil, nil)

	c, rec := newTestContext(http.MethodPost, "/api/checkout",
		fmt.Sprintf(`{"items":[{"service_template_id":"%s","quantity":1}]}`, uuidText(newTestUUID())))
	middleware.SetPrincipal(c, clientUser(newTestUUID()))

	require.NoError(t, h.Checkout(c))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, domain.EGATEWAY, envelope.Error.Code)
}
