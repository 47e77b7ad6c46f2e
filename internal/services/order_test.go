package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/models"
	"github.com/kasuwaapp/kasuwa/internal/money"
	"github.com/kasuwaapp/kasuwa/internal/paystack"
	"github.com/kasuwaapp/kasuwa/internal/pricing"
)

type fakeOrderStore struct {
	orders        map[uuid.UUID]*db.Order
	created       int
	getCalls      int
	markPaidCalls int
	markPaidErr   error

	// paidOnReload makes reloads after the first GetByID observe a paid
	// order, simulating a concurrent settlement winning in between.
	paidOnReload bool
}

func newFakeOrderStore(orders ...*db.Order) *fakeOrderStore {
	store := &fakeOrderStore{orders: make(map[uuid.UUID]*db.Order)}
	for _, order := range orders {
		store.orders[order.ID] = order
	}
	return store
}

func (s *fakeOrderStore) Create(_ context.Context, order *db.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	copied := *order
	s.orders[order.ID] = &copied
	s.created++
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*db.Order, error) {
	s.getCalls++
	order, ok := s.orders[orderID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *order
	if s.paidOnReload && s.getCalls > 1 {
		copied.IsPaid = true
	}
	return &copied, nil
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*db.Order, error) {
	var orders []*db.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) ListAll(_ context.Context, _ int) ([]*db.Order, error) {
	var orders []*db.Order
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, orderID uuid.UUID, result db.PaymentResult, paidAt time.Time) error {
	s.markPaidCalls++
	if s.markPaidErr != nil {
		return s.markPaidErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return db.ErrNotFound
	}
	if order.IsPaid {
		return db.ErrInvalidTransition
	}
	order.IsPaid = true
	order.PaidAt = paidAt
	order.PaymentResult = &result
	return nil
}

func (s *fakeOrderStore) MarkDelivered(_ context.Context, orderID uuid.UUID, deliveredAt time.Time) error {
	order, ok := s.orders[orderID]
	if !ok {
		return db.ErrNotFound
	}
	if order.IsDelivered {
		return db.ErrInvalidTransition
	}
	order.IsDelivered = true
	order.DeliveredAt = deliveredAt
	return nil
}

type fakeCatalog struct {
	products []*db.Product
}

func (c *fakeCatalog) GetByIDs(_ context.Context, productIDs []uuid.UUID) ([]*db.Product, error) {
	var found []*db.Product
	for _, product := range c.products {
		for _, id := range productIDs {
			if product.ID == id {
				found = append(found, product)
			}
		}
	}
	return found, nil
}

type fakeGateway struct {
	tx    *paystack.Transaction
	err   error
	calls int
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*paystack.Transaction, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.tx, nil
}

type recordingEmailSender struct {
	sent []uuid.UUID
}

func (r *recordingEmailSender) SendOrderConfirmation(_ context.Context, order *db.Order) error {
	r.sent = append(r.sent, order.ID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Address:    "12 Allen Avenue",
		City:       "Lagos",
		PostalCode: "100001",
		Country:    "NG",
	}
}

func newTestOrder(total money.Cents, email string) *db.Order {
	return &db.Order{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		User:       &models.UserSummary{Username: "buyer", Email: email},
		TotalPrice: total,
		OrderItems: []db.OrderItem{{Name: "Thing", Quantity: 1, Price: total}},
		ShippingAddress: models.ShippingAddress{
			Address: "12 Allen Avenue", City: "Lagos", PostalCode: "100001", Country: "NG",
		},
		PaymentMethod: "paystack",
		CreatedAt:     time.Now(),
	}
}

func successfulTx(amount money.Cents, email string) *paystack.Transaction {
	return &paystack.Transaction{
		ID:            811234,
		Status:        paystack.StatusSuccess,
		Reference:     "ref_123",
		Amount:        amount,
		Currency:      "NGN",
		Channel:       "card",
		CustomerEmail: email,
		PaidAt:        time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	t.Parallel()

	product := &db.Product{ID: uuid.New(), Name: "Leather Bag", Image: "/img/bag.png", Price: 42_50}
	store := newFakeOrderStore()
	svc := NewOrderService(store, &fakeCatalog{products: []*db.Product{product}}, nil,
		pricing.NewCalculator(pricing.DefaultConfig()), nil, testLogger())

	order, err := svc.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if got := order.OrderItems[0].Price; got != product.Price {
		t.Errorf("item price = %s, want catalog price %s", got, product.Price)
	}
	if order.ItemsPrice != 85_00 {
		t.Errorf("items price = %s, want 85.00", order.ItemsPrice)
	}
	if order.ShippingPrice != 10_00 {
		t.Errorf("shipping price = %s, want 10.00", order.ShippingPrice)
	}
	if order.TaxPrice != 7_23 {
		t.Errorf("tax price = %s, want 7.23", order.TaxPrice)
	}
	if order.TotalPrice != 102_23 {
		t.Errorf("total price = %s, want 102.23", order.TotalPrice)
	}
	if order.IsPaid || order.IsDelivered {
		t.Error("new order must start unpaid and undelivered")
	}
	if store.created != 1 {
		t.Errorf("created = %d orders, want 1", store.created)
	}
}

func TestCreateOrderUnknownProductNamesOffender(t *testing.T) {
	t.Parallel()

	known := &db.Product{ID: uuid.New(), Name: "Known", Price: 10_00}
	missing := uuid.New()
	store := newFakeOrderStore()
	svc := NewOrderService(store, &fakeCatalog{products: []*db.Product{known}}, nil,
		pricing.NewCalculator(pricing.DefaultConfig()), nil, testLogger())

	_, err := svc.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		Items: []CreateOrderItem{
			{ProductID: known.ID, Quantity: 1},
			{ProductID: missing, Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   "paystack",
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("CreateOrder() error = %v, want ErrProductNotFound", err)
	}
	if !strings.Contains(err.Error(), missing.String()) {
		t.Errorf("error %q does not name the missing product id", err)
	}
	if store.created != 0 {
		t.Errorf("created = %d orders, want 0 after failed lookup", store.created)
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	t.Parallel()

	product := &db.Product{ID: uuid.New(), Name: "Known", Price: 10_00}

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{
			name: "no items",
			input: CreateOrderInput{
				ShippingAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{
				Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 0}},
				ShippingAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
		},
		{
			name: "negative quantity",
			input: CreateOrderInput{
				Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: -2}},
				ShippingAddress: testAddress(),
				PaymentMethod:   "paystack",
			},
		},
		{
			name: "missing address",
			input: CreateOrderInput{
				Items:         []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
				PaymentMethod: "paystack",
			},
		},
		{
			name: "missing payment method",
			input: CreateOrderInput{
				Items:           []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: testAddress(),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeOrderStore()
			svc := NewOrderService(store, &fakeCatalog{products: []*db.Product{product}}, nil,
				pricing.NewCalculator(pricing.DefaultConfig()), nil, testLogger())

			_, err := svc.CreateOrder(context.Background(), uuid.New(), tc.input)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("CreateOrder() error = %v, want ErrInvalidOrder", err)
			}
			if store.created != 0 {
				t.Errorf("created = %d orders, want 0", store.created)
			}
		})
	}
}

func TestMarkPaidSettlesOrder(t *testing.T) {
	t.Parallel()

	order := newTestOrder(102_23, "buyer@example.com")
	store := newFakeOrderStore(order)
	gateway := &fakeGateway{tx: successfulTx(102_23, "buyer@example.com")}
	emails := &recordingEmailSender{}
	svc := NewOrderService(store, nil, gateway, nil, emails, testLogger())

	settled, err := svc.MarkPaid(context.Background(), order.ID, "ref_123")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}

	if !settled.IsPaid {
		t.Error("order not marked paid")
	}
	if settled.PaymentResult == nil {
		t.Fatal("payment result not recorded")
	}
	if settled.PaymentResult.Reference != "ref_123" {
		t.Errorf("payment reference = %q, want ref_123", settled.PaymentResult.Reference)
	}
	if settled.PaymentResult.Channel != "card" {
		t.Errorf("payment channel = %q, want card", settled.PaymentResult.Channel)
	}
	if got := settled.PaidAt; !got.Equal(gateway.tx.PaidAt) {
		t.Errorf("paid at = %v, want gateway time %v", got, gateway.tx.PaidAt)
	}
	if stored := store.orders[order.ID]; !stored.IsPaid {
		t.Error("store not updated")
	}
	if len(emails.sent) != 1 {
		t.Errorf("confirmation emails sent = %d, want 1", len(emails.sent))
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	t.Parallel()

	order := newTestOrder(102_23, "buyer@example.com")
	order.IsPaid = true
	order.PaidAt = time.Now()
	order.PaymentResult = &db.PaymentResult{Reference: "ref_123", Status: paystack.StatusSuccess}

	store := newFakeOrderStore(order)
	gateway := &fakeGateway{tx: successfulTx(102_23, "buyer@example.com")}
	emails := &recordingEmailSender{}
	svc := NewOrderService(store, nil, gateway, nil, emails, testLogger())

	settled, err := svc.MarkPaid(context.Background(), order.ID, "ref_123")
	if err != nil {
		t.Fatalf("MarkPaid() on settled order error = %v", err)
	}
	if !settled.IsPaid {
		t.Error("settled order reported unpaid")
	}
	if store.markPaidCalls != 0 {
		t.Errorf("markPaidCalls = %d, want 0 for an already settled order", store.markPaidCalls)
	}
	if len(emails.sent) != 0 {
		t.Errorf("confirmation emails sent = %d, want 0 on duplicate settlement", len(emails.sent))
	}
}

func TestMarkPaidRaceLoserSucceeds(t *testing.T) {
	t.Parallel()

	order := newTestOrder(102_23, "buyer@example.com")
	store := newFakeOrderStore(order)
	store.markPaidErr = db.ErrInvalidTransition
	store.paidOnReload = true
	gateway := &fakeGateway{tx: successfulTx(102_23, "buyer@example.com")}
	svc := NewOrderService(store, nil, gateway, nil, nil, testLogger())

	settled, err := svc.MarkPaid(context.Background(), order.ID, "ref_123")
	if err != nil {
		t.Fatalf("MarkPaid() race loser error = %v", err)
	}
	if !settled.IsPaid {
		t.Error("race loser did not observe the settled order")
	}
	if store.markPaidCalls != 1 {
		t.Errorf("markPaidCalls = %d, want the conditional write to have been attempted once", store.markPaidCalls)
	}
}

func TestMarkPaidFailClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gateway *fakeGateway
		wantErr error
	}{
		{
			name:    "amount mismatch",
			gateway: &fakeGateway{tx: successfulTx(99_99, "buyer@example.com")},
			wantErr: ErrAmountMismatch,
		},
		{
			name:    "email mismatch",
			gateway: &fakeGateway{tx: successfulTx(102_23, "somebody.else@example.com")},
			wantErr: ErrEmailMismatch,
		},
		{
			name: "transaction failed at gateway",
			gateway: &fakeGateway{tx: &paystack.Transaction{
				Status: "failed", Reference: "ref_123", Amount: 102_23, CustomerEmail: "buyer@example.com",
			}},
			wantErr: ErrPaymentNotVerified,
		},
		{
			name:    "transaction unknown at gateway",
			gateway: &fakeGateway{err: paystack.ErrTransactionNotFound},
			wantErr: ErrPaymentNotVerified,
		},
		{
			name:    "gateway unavailable",
			gateway: &fakeGateway{err: paystack.ErrUnavailable},
			wantErr: paystack.ErrUnavailable,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			order := newTestOrder(102_23, "buyer@example.com")
			store := newFakeOrderStore(order)
			svc := NewOrderService(store, nil, tc.gateway, nil, nil, testLogger())

			_, err := svc.MarkPaid(context.Background(), order.ID, "ref_123")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("MarkPaid() error = %v, want %v", err, tc.wantErr)
			}
			if store.markPaidCalls != 0 {
				t.Errorf("markPaidCalls = %d, want 0 on rejected settlement", store.markPaidCalls)
			}
			if store.orders[order.ID].IsPaid {
				t.Error("order mutated by rejected settlement")
			}
		})
	}
}

func TestMarkPaidNormalizesEmails(t *testing.T) {
	t.Parallel()

	order := newTestOrder(102_23, "Buyer@Example.com")
	store := newFakeOrderStore(order)
	gateway := &fakeGateway{tx: successfulTx(102_23, " buyer@example.COM ")}
	svc := NewOrderService(store, nil, gateway, nil, nil, testLogger())

	if _, err := svc.MarkPaid(context.Background(), order.ID, "ref_123"); err != nil {
		t.Fatalf("MarkPaid() error = %v, want case-insensitive email match", err)
	}
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	gateway := &fakeGateway{tx: successfulTx(102_23, "buyer@example.com")}
	svc := NewOrderService(store, nil, gateway, nil, nil, testLogger())

	_, err := svc.MarkPaid(context.Background(), uuid.New(), "ref_123")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("MarkPaid() error = %v, want ErrOrderNotFound", err)
	}
}

func TestMarkDelivered(t *testing.T) {
	t.Parallel()

	order := newTestOrder(102_23, "buyer@example.com")
	store := newFakeOrderStore(order)
	svc := NewOrderService(store, nil, nil, nil, nil, testLogger())

	delivered, err := svc.MarkDelivered(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	if !delivered.IsDelivered || delivered.DeliveredAt.IsZero() {
		t.Error("order not marked delivered")
	}

	again, err := svc.MarkDelivered(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("MarkDelivered() second call error = %v", err)
	}
	if !again.DeliveredAt.Equal(store.orders[order.ID].DeliveredAt) {
		t.Error("second delivery call changed the delivery time")
	}
}
