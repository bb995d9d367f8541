package handler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/billing"
	"github.com/hollisdev/agencydesk/internal/domain"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

// mockOrderService records calls and delegates to overridable funcs.
type mockOrderService struct {
	CreateOrderFunc    func(ctx context.Context, params service.CreateOrderParams) (*service.CheckoutResult, error)
	ConfirmPaymentFunc func(ctx context.Context, params service.ConfirmPaymentParams) (*service.OrderDetail, error)
	SignContractFunc   func(ctx context.Context, params service.SignContractParams) (*service.OrderDetail, error)
	RefundOrderFunc    func(ctx context.Context, params service.RefundOrderParams) (*service.OrderDetail, error)
	GetOrderFunc       func(ctx context.Context, orderID string) (*service.OrderDetail, error)

	CallLog []string
}

func (m *mockOrderService) CreateOrder(ctx context.Context, params service.CreateOrderParams) (*service.CheckoutResult, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateOrder(%s)", params.ClientID))
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}
	order := repository.Order{
		ID:          newTestUUID(),
		OrderNumber: "ORD-20260301-ABCDEF",
		ClientID:    mustParseUUID(params.ClientID),
		Status:      "pending",
		TotalCents:  250000,
		Currency:    "usd",
	}
	return &service.CheckoutResult{
		Order:       order,
		CheckoutURL: "https://checkout.example.com/" + params.ClientID,
		SessionID:   "cs_test_1",
	}, nil
}

func (m *mockOrderService) ConfirmPayment(ctx context.Context, params service.ConfirmPaymentParams) (*service.OrderDetail, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ConfirmPayment(%s)", params.SessionID))
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, params)
	}
	return &service.OrderDetail{Order: repository.Order{
		ID:            newTestUUID(),
		OrderNumber:   "ORD-20260301-ABCDEF",
		ClientID:      newTestUUID(),
		Status:        "completed",
		PaymentStatus: "succeeded",
	}}, nil
}

func (m *mockOrderService) SignContract(ctx context.Context, params service.SignContractParams) (*service.OrderDetail, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SignContract(%s)", params.OrderID))
	if m.SignContractFunc != nil {
		return m.SignContractFunc(ctx, params)
	}
	return &service.OrderDetail{Order: repository.Order{ID: mustParseUUID(params.OrderID)}}, nil
}

func (m *mockOrderService) RefundOrder(ctx context.Context, params service.RefundOrderParams) (*service.OrderDetail, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("RefundOrder(%s, %s)", params.OrderID, params.Type))
	if m.RefundOrderFunc != nil {
		return m.RefundOrderFunc(ctx, params)
	}
	amount := params.AmountCents
	if params.Type == domain.RefundTypeFull {
		amount = 250000
	}
	return &service.OrderDetail{
		Order: repository.Order{ID: mustParseUUID(params.OrderID)},
		Refund: &domain.RefundRecord{
			Version:         domain.RefundRecordVersion,
			Type:            params.Type,
			AmountCents:     amount,
			Reason:          params.Reason,
			GatewayRefundID: "re_test_1",
			GatewayStatus:   "succeeded",
		},
	}, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID string) (*service.OrderDetail, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetOrder(%s)", orderID))
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, orderID)
	}
	return &service.OrderDetail{Order: repository.Order{ID: mustParseUUID(orderID)}}, nil
}

// stubStore satisfies repository.Store for handler tests. Only the methods a
// test exercises are implemented; anything else panics via the embedded nil
// interface.
type stubStore struct {
	repository.Store

	carts     map[[16]byte][]repository.CartItem
	endpoints []repository.WebhookEndpoint
	users     map[string]repository.User
}

func newStubStore() *stubStore {
	return &stubStore{
		carts: make(map[[16]byte][]repository.CartItem),
		users: make(map[string]repository.User),
	}
}

func (s *stubStore) GetUserBySessionToken(ctx context.Context, token string) (repository.User, error) {
	user, ok := s.users[token]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubStore) GetCartItems(ctx context.Context, clientID pgtype.UUID) ([]repository.CartItem, error) {
	return s.carts[clientID.Bytes], nil
}

func (s *stubStore) AddCartItem(ctx context.Context, params repository.AddCartItemParams) error {
	items := s.carts[params.ClientID.Bytes]
	for i, item := range items {
		if item.ServiceTemplateID == params.ServiceTemplateID {
			items[i].Quantity = params.Quantity
			return nil
		}
	}
	s.carts[params.ClientID.Bytes] = append(items, repository.CartItem{
		ClientID:          params.ClientID,
		ServiceTemplateID: params.ServiceTemplateID,
		Quantity:          params.Quantity,
	})
	return nil
}

func (s *stubStore) ClearCart(ctx context.Context, clientID pgtype.UUID) error {
	delete(s.carts, clientID.Bytes)
	return nil
}

func (s *stubStore) CreateWebhookEndpoint(ctx context.Context, params repository.CreateWebhookEndpointParams) (repository.WebhookEndpoint, error) {
	ep := repository.WebhookEndpoint{
		ID:      newTestUUID(),
		Name:    params.Name,
		Url:     params.Url,
		Secret:  params.Secret,
		Headers: params.Headers,
		Events:  params.Events,
		Active:  params.Active,
	}
	s.endpoints = append(s.endpoints, ep)
	return ep, nil
}

func (s *stubStore) ListActiveWebhookEndpoints(ctx context.Context) ([]repository.WebhookEndpoint, error) {
	return s.endpoints, nil
}

func newTestHandler(orders service.OrderService, provider billing.Provider, store repository.Store) *Handler {
	if orders == nil {
		orders = &mockOrderService{}
	}
	if provider == nil {
		provider = billing.NewMockProvider()
	}
	if store == nil {
		store = newStubStore()
	}
	h, err := New(orders, provider, store, nil, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return h
}

func newTestUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func mustParseUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func clientUser(clientID pgtype.UUID) repository.User {
	return repository.User{
		ID:       newTestUUID(),
		Email:    "client@example.com",
		Role:     "client",
		ClientID: clientID,
	}
}

func staffUser() repository.User {
	return repository.User{
		ID:    newTestUUID(),
		Email: "staff@example.com",
		Role:  "staff",
	}
}
