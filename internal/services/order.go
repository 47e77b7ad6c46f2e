package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/logging"
	"github.com/kasuwaapp/kasuwa/internal/models"
	"github.com/kasuwaapp/kasuwa/internal/observability"
	"github.com/kasuwaapp/kasuwa/internal/paystack"
	"github.com/kasuwaapp/kasuwa/internal/pricing"
)

type OrderService struct {
	orderStore  orderStore
	catalog     productCatalog
	gateway     paymentGateway
	pricer      orderPricer
	emailSender OrderEmailSender
	logger      *slog.Logger
	now         func() time.Time
}

type orderStore interface {
	Create(ctx context.Context, order *db.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*db.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*db.Order, error)
	ListAll(ctx context.Context, limit int) ([]*db.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, result db.PaymentResult, paidAt time.Time) error
	MarkDelivered(ctx context.Context, orderID uuid.UUID, deliveredAt time.Time) error
}

type productCatalog interface {
	GetByIDs(ctx context.Context, productIDs []uuid.UUID) ([]*db.Product, error)
}

type paymentGateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type orderPricer interface {
	Quote(items []pricing.LineItem) pricing.Quote
}

func NewOrderService(orderStore orderStore, catalog productCatalog, gateway paymentGateway, pricer orderPricer, emailSender OrderEmailSender, logger *slog.Logger) *OrderService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &OrderService{
		orderStore:  orderStore,
		catalog:     catalog,
		gateway:     gateway,
		pricer:      pricer,
		emailSender: emailSender,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CreateOrderInput struct {
	Items           []CreateOrderItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrder resolves the requested products against the catalog,
// prices the order server-side and persists it unpaid. Prices sent by
// the client are never consulted.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*db.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("CreateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("order.create.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if len(input.Items) == 0 {
		recordFailure("no_items")
		return nil, fmt.Errorf("%w: no order items", ErrInvalidOrder)
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			recordFailure("invalid_quantity")
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", ErrInvalidOrder, item.ProductID)
		}
	}
	if input.ShippingAddress.Address == "" || input.ShippingAddress.City == "" ||
		input.ShippingAddress.PostalCode == "" || input.ShippingAddress.Country == "" {
		recordFailure("incomplete_address")
		return nil, fmt.Errorf("%w: incomplete shipping address", ErrInvalidOrder)
	}
	if input.PaymentMethod == "" {
		recordFailure("missing_payment_method")
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidOrder)
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.catalog.GetByIDs(ctx, productIDs)
	if err != nil {
		recordFailure("catalog_lookup_failed")
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}
	byID := make(map[uuid.UUID]*db.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	orderItems := make([]db.OrderItem, 0, len(input.Items))
	lineItems := make([]pricing.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			recordFailure("product_missing")
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
		orderItems = append(orderItems, db.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		lineItems = append(lineItems, pricing.LineItem{
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}

	quote := s.pricer.Quote(lineItems)

	order := &db.Order{
		UserID:          userID,
		OrderItems:      orderItems,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      quote.ItemsPrice,
		ShippingPrice:   quote.ShippingPrice,
		TaxPrice:        quote.TaxPrice,
		TotalPrice:      quote.TotalPrice,
	}

	if err := s.orderStore.Create(ctx, order); err != nil {
		recordFailure("order_create_failed")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	meter.Count("order.created", 1)

	return order, nil
}

// MarkPaid reconciles a gateway reference against an order. The gateway
// is consulted first so an unverifiable payment never reads or writes
// order state.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, reference string) (*db.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.mark_paid",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("MarkPaid"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordRejection := func(reason string) {
		meter.Count("payment.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	tx, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			recordRejection("transaction_not_found")
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotVerified, reference)
		}
		recordRejection("gateway_unavailable")
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}
	if !tx.Succeeded() {
		recordRejection("transaction_not_successful")
		return nil, fmt.Errorf("%w: transaction status %q", ErrPaymentNotVerified, tx.Status)
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			recordRejection("order_not_found")
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if order.IsPaid {
		meter.Count("payment.settled.duplicate", 1)
		return order, nil
	}

	if tx.Amount != order.TotalPrice {
		recordRejection("amount_mismatch")
		return nil, fmt.Errorf("%w: gateway reports %s, order total is %s",
			ErrAmountMismatch, tx.Amount, order.TotalPrice)
	}
	if order.User == nil || !equalEmail(tx.CustomerEmail, order.User.Email) {
		recordRejection("email_mismatch")
		return nil, ErrEmailMismatch
	}

	paidAt := tx.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	result := db.PaymentResult{
		TransactionID: tx.ID,
		Status:        tx.Status,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Channel:       tx.Channel,
		Currency:      tx.Currency,
	}

	if err := s.orderStore.MarkPaid(ctx, order.ID, result, paidAt); err != nil {
		if errors.Is(err, db.ErrInvalidTransition) {
			// Lost a settlement race. The winner's write stands;
			// reload and report success if the order is paid.
			current, loadErr := s.orderStore.GetByID(ctx, order.ID)
			if loadErr == nil && current.IsPaid {
				meter.Count("payment.settled.duplicate", 1)
				return current, nil
			}
			if loadErr != nil {
				return nil, fmt.Errorf("failed to reload order after settlement conflict: %w", loadErr)
			}
		}
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	meter.Count("payment.settled", 1, sentry.WithAttributes(
		attribute.String("channel", tx.Channel),
	))

	order.IsPaid = true
	order.PaidAt = paidAt
	order.PaymentResult = &result

	if err := s.emailSender.SendOrderConfirmation(ctx, order); err != nil {
		logger.Warn("failed to send order confirmation email", "error", err, "order_id", order.ID)
	}

	return order, nil
}

// MarkDelivered records delivery. Calling it on an already delivered
// order returns the current state unchanged.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*db.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.IsDelivered {
		return order, nil
	}

	deliveredAt := s.now()
	if err := s.orderStore.MarkDelivered(ctx, order.ID, deliveredAt); err != nil {
		if errors.Is(err, db.ErrInvalidTransition) {
			current, loadErr := s.orderStore.GetByID(ctx, order.ID)
			if loadErr == nil && current.IsDelivered {
				return current, nil
			}
		}
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	order.IsDelivered = true
	order.DeliveredAt = deliveredAt
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*db.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*db.Order, error) {
	orders, err := s.orderStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, limit int) ([]*db.Order, error) {
	orders, err := s.orderStore.ListAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func equalEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
