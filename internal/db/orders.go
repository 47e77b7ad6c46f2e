package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasuwaapp/kasuwa/internal/models"
	"github.com/kasuwaapp/kasuwa/internal/money"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	o.id, o.user_id, o.order_items, o.shipping_address, o.payment_method,
	o.items_price_cents, o.shipping_price_cents, o.tax_price_cents, o.total_price_cents,
	o.is_paid, o.paid_at, o.payment_result,
	o.is_delivered, o.delivered_at, o.created_at,
	u.username, u.email`

func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	itemsJSON, err := json.Marshal(order.OrderItems)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (
			user_id, order_items, shipping_address, payment_method,
			items_price_cents, shipping_price_cents, tax_price_cents, total_price_cents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err = s.pool.QueryRow(ctx, query,
		order.UserID, itemsJSON, addressJSON, order.PaymentMethod,
		int64(order.ItemsPrice), int64(order.ShippingPrice), int64(order.TaxPrice), int64(order.TotalPrice),
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetByID loads the order together with its owner's username and email.
func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `
		SELECT` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`
	row := s.pool.QueryRow(ctx, query, orderID)
	return scanOrder(row)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	query := `
		SELECT` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *OrderStore) ListAll(ctx context.Context, limit int) ([]*Order, error) {
	query := `
		SELECT` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// MarkPaid settles the order. The write is conditioned on the order
// still being unpaid so concurrent verifications settle at most once;
// a loser observes ErrInvalidTransition and should reload.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID uuid.UUID, result PaymentResult, paidAt time.Time) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode payment result: %w", err)
	}

	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $2, payment_result = $3
		WHERE id = $1 AND is_paid = FALSE
	`
	cmdTag, err := s.pool.Exec(ctx, query, orderID, paidAt, resultJSON)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected unpaid order", ErrInvalidTransition)
	}
	return nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, orderID uuid.UUID, deliveredAt time.Time) error {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $2
		WHERE id = $1 AND is_delivered = FALSE
	`
	cmdTag, err := s.pool.Exec(ctx, query, orderID, deliveredAt)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected undelivered order", ErrInvalidTransition)
	}
	return nil
}

func (s *OrderStore) CountOrders(ctx context.Context) (total int64, paid int64, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_paid) FROM orders`
	if err := s.pool.QueryRow(ctx, query).Scan(&total, &paid); err != nil {
		return 0, 0, err
	}
	return total, paid, nil
}

// TotalSales sums settled orders only.
func (s *OrderStore) TotalSales(ctx context.Context) (money.Cents, error) {
	var totalCents int64
	query := `SELECT COALESCE(SUM(total_price_cents), 0) FROM orders WHERE is_paid`
	if err := s.pool.QueryRow(ctx, query).Scan(&totalCents); err != nil {
		return 0, err
	}
	return money.Cents(totalCents), nil
}

type DailySales struct {
	Date  string      `json:"date"`
	Total money.Cents `json:"total"`
}

func (s *OrderStore) SalesByDay(ctx context.Context) ([]DailySales, error) {
	query := `
		SELECT to_char(paid_at, 'YYYY-MM-DD'), SUM(total_price_cents)
		FROM orders
		WHERE is_paid
		GROUP BY 1
		ORDER BY 1
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []DailySales
	for rows.Next() {
		var day DailySales
		var totalCents int64
		if err := rows.Scan(&day.Date, &totalCents); err != nil {
			return nil, err
		}
		day.Total = money.Cents(totalCents)
		sales = append(sales, day)
	}
	return sales, rows.Err()
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row orderScanner) (*Order, error) {
	var (
		order         Order
		owner         models.UserSummary
		itemsJSON     []byte
		addressJSON   []byte
		resultJSON    []byte
		itemsCents    int64
		shippingCents int64
		taxCents      int64
		totalCents    int64
		paidAt        pgtype.Timestamptz
		deliveredAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID, &order.UserID, &itemsJSON, &addressJSON, &order.PaymentMethod,
		&itemsCents, &shippingCents, &taxCents, &totalCents,
		&order.IsPaid, &paidAt, &resultJSON,
		&order.IsDelivered, &deliveredAt, &order.CreatedAt,
		&owner.Username, &owner.Email,
	)
	if err != nil {
		return nil, err
	}

	order.ItemsPrice = money.Cents(itemsCents)
	order.ShippingPrice = money.Cents(shippingCents)
	order.TaxPrice = money.Cents(taxCents)
	order.TotalPrice = money.Cents(totalCents)

	if err := json.Unmarshal(itemsJSON, &order.OrderItems); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	if resultJSON != nil {
		var result PaymentResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to decode payment result: %w", err)
		}
		order.PaymentResult = &result
	}
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}

	owner.ID = order.UserID
	order.User = &owner

	return &order, nil
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
