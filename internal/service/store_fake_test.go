package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeStore is an in-memory repository.Store. It implements the same
// not-found and guard semantics as the SQL queries so service behavior can
// be exercised without a database. Transactions are not isolated; tests
// only assert on committed outcomes.
type fakeStore struct {
	mu sync.Mutex

	clients   map[[16]byte]repository.Client
	templates map[[16]byte]repository.ServiceTemplate
	orders    map[[16]byte]repository.Order
	items     map[[16]byte][]repository.OrderItem
	timeline  map[[16]byte][]repository.OrderTimeline
	contracts map[[16]byte]repository.ServiceContract // keyed by order id
	invoices  map[[16]byte]repository.Invoice         // keyed by order id
	metrics   map[string]*repository.SalesMetrics     // keyed by day
	carts     map[[16]byte][]repository.CartItem
	users     map[string]repository.User // keyed by session token
	endpoints map[[16]byte]repository.WebhookEndpoint
	execs     []repository.WebhookExecution
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:   make(map[[16]byte]repository.Client),
		templates: make(map[[16]byte]repository.ServiceTemplate),
		orders:    make(map[[16]byte]repository.Order),
		items:     make(map[[16]byte][]repository.OrderItem),
		timeline:  make(map[[16]byte][]repository.OrderTimeline),
		contracts: make(map[[16]byte]repository.ServiceContract),
		invoices:  make(map[[16]byte]repository.Invoice),
		metrics:   make(map[string]*repository.SalesMetrics),
		carts:     make(map[[16]byte][]repository.CartItem),
		users:     make(map[string]repository.User),
		endpoints: make(map[[16]byte]repository.WebhookEndpoint),
	}
}

func newUUID() pgtype.UUID {
	id := uuid.New()
	return pgtype.UUID{Bytes: id, Valid: true}
}

func dayKey(d pgtype.Date) string {
	return d.Time.Format("2006-01-02")
}

// fakeTx operates directly on the underlying store. Rollback is a no-op,
// which is fine for tests that only assert on success paths and on guards
// triggered before any write.
type fakeTx struct {
	*fakeStore
}

func (s *fakeStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	return &fakeTx{s}, nil
}

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

// --- clients ---

func (s *fakeStore) CreateClient(ctx context.Context, params repository.CreateClientParams) (repository.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := repository.Client{
		ID:           newUUID(),
		Name:         params.Name,
		BusinessName: params.BusinessName,
		Email:        params.Email,
	}
	s.clients[c.ID.Bytes] = c
	return c, nil
}

func (s *fakeStore) GetClient(ctx context.Context, id pgtype.UUID) (repository.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id.Bytes]
	if !ok {
		return repository.Client{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeStore) ApplyOrderCompletion(ctx context.Context, params repository.ApplyOrderCompletionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[params.ClientID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	c.LifetimeValueCents += params.AmountCents
	c.TotalOrders++
	if !c.FirstOrderDate.Valid {
		c.FirstOrderDate = params.CompletedAt
	}
	c.LastOrderDate = params.CompletedAt
	s.clients[params.ClientID.Bytes] = c
	return nil
}

func (s *fakeStore) DecrementClientLifetimeValue(ctx context.Context, params repository.DecrementClientLifetimeValueParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[params.ClientID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	c.LifetimeValueCents -= params.AmountCents
	if c.LifetimeValueCents < 0 {
		c.LifetimeValueCents = 0
	}
	s.clients[params.ClientID.Bytes] = c
	return nil
}

// --- service templates ---

func (s *fakeStore) CreateServiceTemplate(ctx context.Context, params repository.CreateServiceTemplateParams) (repository.ServiceTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := repository.ServiceTemplate{
		ID:               newUUID(),
		Name:             params.Name,
		PriceCents:       params.PriceCents,
		Currency:         params.Currency,
		IsPurchasable:    params.IsPurchasable,
		RequiresContract: params.RequiresContract,
		ContractTemplate: params.ContractTemplate,
		MaxQuantity:      params.MaxQuantity,
	}
	s.templates[t.ID.Bytes] = t
	return t, nil
}

func (s *fakeStore) GetServiceTemplate(ctx context.Context, id pgtype.UUID) (repository.ServiceTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id.Bytes]
	if !ok {
		return repository.ServiceTemplate{}, pgx.ErrNoRows
	}
	return t, nil
}

func (s *fakeStore) GetServiceTemplatesByIDs(ctx context.Context, ids []pgtype.UUID) ([]repository.ServiceTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ServiceTemplate
	for _, id := range ids {
		if t, ok := s.templates[id.Bytes]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- orders ---

func (s *fakeStore) CreateOrder(ctx context.Context, params repository.CreateOrderParams) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := repository.Order{
		ID:            newUUID(),
		OrderNumber:   params.OrderNumber,
		ClientID:      params.ClientID,
		Status:        params.Status,
		PaymentStatus: params.PaymentStatus,
		SubtotalCents: params.SubtotalCents,
		TaxCents:      params.TaxCents,
		TotalCents:    params.TotalCents,
		Currency:      params.Currency,
		CreatedAt:     pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	s.orders[o.ID.Bytes] = o
	return o, nil
}

func (s *fakeStore) CreateOrderItem(ctx context.Context, params repository.CreateOrderItemParams) (repository.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := repository.OrderItem{
		ID:                newUUID(),
		OrderID:           params.OrderID,
		ServiceTemplateID: params.ServiceTemplateID,
		ServiceName:       params.ServiceName,
		Quantity:          params.Quantity,
		UnitPriceCents:    params.UnitPriceCents,
		TotalCents:        params.TotalCents,
	}
	s.items[params.OrderID.Bytes] = append(s.items[params.OrderID.Bytes], item)
	return item, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id.Bytes]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *fakeStore) GetOrderByCheckoutSession(ctx context.Context, sessionID string) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.StripeSessionID.Valid && o.StripeSessionID.String == sessionID {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (s *fakeStore) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[orderID.Bytes], nil
}

func (s *fakeStore) UpdateOrderCheckoutSession(ctx context.Context, params repository.UpdateOrderCheckoutSessionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[params.ID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	o.StripeSessionID = pgtype.Text{String: params.SessionID, Valid: true}
	s.orders[params.ID.Bytes] = o
	return nil
}

func (s *fakeStore) MarkOrderPaid(ctx context.Context, params repository.MarkOrderPaidParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[params.ID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = params.PaymentStatus
	o.Status = params.Status
	o.StripePaymentIntentID = params.PaymentIntentID
	o.PaidAt = params.PaidAt
	o.CompletedAt = params.CompletedAt
	s.orders[params.ID.Bytes] = o
	return nil
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, params repository.UpdateOrderStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[params.ID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = params.Status
	if params.CompletedAt.Valid {
		o.CompletedAt = params.CompletedAt
	}
	s.orders[params.ID.Bytes] = o
	return nil
}

func (s *fakeStore) ApplyOrderRefund(ctx context.Context, params repository.ApplyOrderRefundParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[params.ID.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = params.Status
	o.PaymentStatus = params.PaymentStatus
	o.Refund = params.Refund
	s.orders[params.ID.Bytes] = o
	return nil
}

// --- timeline ---

func (s *fakeStore) CreateTimelineEntry(ctx context.Context, params repository.CreateTimelineEntryParams) (repository.OrderTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := repository.OrderTimeline{
		ID:          newUUID(),
		OrderID:     params.OrderID,
		Status:      params.Status,
		Title:       params.Title,
		Description: params.Description,
		CompletedAt: params.CompletedAt,
	}
	s.timeline[params.OrderID.Bytes] = append(s.timeline[params.OrderID.Bytes], entry)
	return entry, nil
}

func (s *fakeStore) GetOrderTimeline(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline[orderID.Bytes], nil
}

// --- contracts ---

func (s *fakeStore) CreateServiceContract(ctx context.Context, params repository.CreateServiceContractParams) (repository.ServiceContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.contracts[params.OrderID.Bytes]; ok {
		return existing, nil
	}
	c := repository.ServiceContract{
		ID:              newUUID(),
		OrderID:         params.OrderID,
		TemplateContent: params.TemplateContent,
	}
	s.contracts[params.OrderID.Bytes] = c
	return c, nil
}

func (s *fakeStore) GetContractByOrder(ctx context.Context, orderID pgtype.UUID) (repository.ServiceContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[orderID.Bytes]
	if !ok {
		return repository.ServiceContract{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeStore) SignServiceContract(ctx context.Context, params repository.SignServiceContractParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, c := range s.contracts {
		if c.ID.Bytes != params.ID.Bytes {
			continue
		}
		if c.SignedAt.Valid {
			return repository.ErrContractAlreadySigned
		}
		c.SignedAt = params.SignedAt
		c.SignatureData = params.SignatureData
		c.SignedByName = params.SignedByName
		c.SignedByEmail = params.SignedByEmail
		c.IPAddress = params.IPAddress
		s.contracts[orderID] = c
		return nil
	}
	return pgx.ErrNoRows
}

// --- invoices ---

func (s *fakeStore) CreateInvoice(ctx context.Context, params repository.CreateInvoiceParams) (repository.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.Number == params.Number {
			return repository.Invoice{}, &pgconnDuplicate{number: params.Number}
		}
	}
	inv := repository.Invoice{
		ID:      newUUID(),
		OrderID: params.OrderID,
		Number:  params.Number,
		PdfUrl:  params.PdfUrl,
		DueDate: params.DueDate,
	}
	s.invoices[params.OrderID.Bytes] = inv
	return inv, nil
}

type pgconnDuplicate struct{ number string }

func (e *pgconnDuplicate) Error() string {
	return "duplicate key value violates unique constraint: " + e.number
}

func (s *fakeStore) GetInvoiceByOrder(ctx context.Context, orderID pgtype.UUID) (repository.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[orderID.Bytes]
	if !ok {
		return repository.Invoice{}, pgx.ErrNoRows
	}
	return inv, nil
}

func (s *fakeStore) GetLastInvoiceNumber(ctx context.Context, yearPrefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(yearPrefix, "%")
	last := ""
	for _, inv := range s.invoices {
		if strings.HasPrefix(inv.Number, prefix) && inv.Number > last {
			last = inv.Number
		}
	}
	if last == "" {
		return "", pgx.ErrNoRows
	}
	return last, nil
}

// --- sales metrics ---

func (s *fakeStore) UpsertDailyMetrics(ctx context.Context, params repository.UpsertDailyMetricsParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey(params.Day)
	m, ok := s.metrics[key]
	if !ok {
		m = &repository.SalesMetrics{Day: params.Day}
		s.metrics[key] = m
	}
	m.RevenueCents += params.RevenueCents
	m.OrderCount += params.OrderCount
	m.NewCustomers += params.NewCustomers
	m.RefundAmountCents += params.RefundAmountCents
	m.ContractsSigned += params.ContractsSigned
	if m.OrderCount > 0 {
		m.AvgOrderValueCents = m.RevenueCents / int64(m.OrderCount)
	}
	return nil
}

func (s *fakeStore) GetDailyMetrics(ctx context.Context, day pgtype.Date) (repository.SalesMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[dayKey(day)]
	if !ok {
		return repository.SalesMetrics{}, pgx.ErrNoRows
	}
	return *m, nil
}

// --- cart ---

func (s *fakeStore) AddCartItem(ctx context.Context, params repository.AddCartItemParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[params.ClientID.Bytes] = append(s.carts[params.ClientID.Bytes], repository.CartItem{
		ClientID:          params.ClientID,
		ServiceTemplateID: params.ServiceTemplateID,
		Quantity:          params.Quantity,
	})
	return nil
}

func (s *fakeStore) GetCartItems(ctx context.Context, clientID pgtype.UUID) ([]repository.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[clientID.Bytes], nil
}

func (s *fakeStore) ClearCart(ctx context.Context, clientID pgtype.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, clientID.Bytes)
	return nil
}

// --- users ---

func (s *fakeStore) GetUserBySessionToken(ctx context.Context, token string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[token]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- webhooks ---

func (s *fakeStore) CreateWebhookEndpoint(ctx context.Context, params repository.CreateWebhookEndpointParams) (repository.WebhookEndpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep := repository.WebhookEndpoint{
		ID:      newUUID(),
		Name:    params.Name,
		Url:     params.Url,
		Secret:  params.Secret,
		Headers: params.Headers,
		Events:  params.Events,
		Active:  params.Active,
	}
	s.endpoints[ep.ID.Bytes] = ep
	return ep, nil
}

func (s *fakeStore) ListActiveWebhookEndpoints(ctx context.Context) ([]repository.WebhookEndpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.WebhookEndpoint
	for _, ep := range s.endpoints {
		if ep.Active {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateWebhookExecution(ctx context.Context, params repository.CreateWebhookExecutionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, repository.WebhookExecution{
		ID:         newUUID(),
		EndpointID: params.EndpointID,
		Event:      params.Event,
		Payload:    params.Payload,
		StatusCode: params.StatusCode,
		Response:   params.Response,
		Error:      params.Error,
		DurationMs: params.DurationMs,
	})
	return nil
}
