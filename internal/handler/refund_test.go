package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/middleware"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRoutedServer mounts the full route table so middleware guards apply,
// exactly as in cmd/server.
func newRoutedServer(orders *mockOrderService, store *stubStore) *echo.Echo {
	h := newTestHandler(orders, nil, store)
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	h.RegisterRoutes(e)
	return e
}

func postRefund(e *echo.Echo, orderID, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID+"/refund",
		jsonBody(`{"type":"full","reason":"customer request"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRefundRoute_AdminOnly(t *testing.T) {
	orders := &mockOrderService{}
	store := newStubStore()
	store.users["tok_admin"] = repository.User{ID: newTestUUID(), Role: domain.RoleAdmin}
	store.users["tok_staff"] = repository.User{ID: newTestUUID(), Role: domain.RoleStaff}
	store.users["tok_client"] = repository.User{ID: newTestUUID(), Role: domain.RoleClient, ClientID: newTestUUID()}
	e := newRoutedServer(orders, store)
	orderID := uuidText(newTestUUID())

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous is rejected", "", http.StatusUnauthorized},
		{"client is rejected", "tok_client", http.StatusForbidden},
		{"staff is rejected", "tok_staff", http.StatusForbidden},
		{"admin is allowed", "tok_admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callsBefore := len(orders.CallLog)
			rec := postRefund(e, orderID, tt.token)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Len(t, orders.CallLog, callsBefore+1)
			} else {
				assert.Len(t, orders.CallLog, callsBefore, "rejected requests must not reach the order service")
			}
		})
	}
}

func TestRefundOrder_ReturnsRefundEnvelope(t *testing.T) {
	orders := &mockOrderService{}
	h := newTestHandler(orders, nil, nil)
	orderID := uuidText(newTestUUID())

	c, rec := newTestContext(http.MethodPost, "/api/orders/"+orderID+"/refund",
		`{"type":"full","reason":"customer request"}`)
	c.SetParamNames("id")
	c.SetParamValues(orderID)
	middleware.SetPrincipal(c, repository.User{ID: newTestUUID(), Role: domain.RoleAdmin})

	require.NoError(t, h.RefundOrder(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RefundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "re_test_1", resp.Refund.ID)
	assert.Equal(t, int64(250000), resp.Refund.AmountCents)
	assert.Equal(t, "succeeded", resp.Refund.Status)
	assert.Equal(t, "full", resp.Refund.Type)
	require.Len(t, orders.CallLog, 1)
	assert.Equal(t, fmt.Sprintf("RefundOrder(%s, full)", orderID), orders.CallLog[0])
}
