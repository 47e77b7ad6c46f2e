package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/money"
)

type Order struct {
	ID     uuid.UUID    `json:"id"`
	UserID uuid.UUID    `json:"user_id"`
	User   *UserSummary `json:"user,omitempty"`

	OrderItems      []OrderItem     `json:"order_items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`

	ItemsPrice    money.Cents `json:"items_price"`
	ShippingPrice money.Cents `json:"shipping_price"`
	TaxPrice      money.Cents `json:"tax_price"`
	TotalPrice    money.Cents `json:"total_price"`

	IsPaid        bool           `json:"is_paid"`
	PaidAt        time.Time      `json:"paid_at,omitzero"`
	PaymentResult *PaymentResult `json:"payment_result,omitempty"`

	IsDelivered bool      `json:"is_delivered"`
	DeliveredAt time.Time `json:"delivered_at,omitzero"`

	CreatedAt time.Time `json:"created_at"`
}

// OrderItem is a line item with the unit price snapshotted at order
// time. The price never tracks later catalog changes.
type OrderItem struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	Image     string      `json:"image"`
	Quantity  int         `json:"quantity"`
	Price     money.Cents `json:"price"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentResult records the gateway's view of the settled transaction.
// Written exactly once, when the order transitions to paid.
type PaymentResult struct {
	TransactionID int64       `json:"transaction_id"`
	Status        string      `json:"status"`
	Reference     string      `json:"reference"`
	Amount        money.Cents `json:"amount"`
	Channel       string      `json:"channel"`
	Currency      string      `json:"currency"`
}
