package services

import (
	"context"
	"fmt"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/email"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *db.Order) error
}

// StoreOrderEmailSender renders and sends order emails through the
// configured provider.
type StoreOrderEmailSender struct {
	provider  email.Provider
	storeName string
	storeURL  string
}

func NewStoreOrderEmailSender(provider email.Provider, storeName, storeURL string) *StoreOrderEmailSender {
	return &StoreOrderEmailSender{
		provider:  provider,
		storeName: storeName,
		storeURL:  storeURL,
	}
}

func (s *StoreOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *db.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.User == nil || order.User.Email == "" {
		return fmt.Errorf("order owner email is required")
	}

	info := &email.OrderInfo{
		OrderNumber:   order.ID.String(),
		CustomerName:  order.User.Username,
		CustomerEmail: order.User.Email,
		StoreName:     s.storeName,
		StoreURL:      s.storeURL,
		OrderDate:     order.CreatedAt.Format("January 2, 2006"),
		Subtotal:      order.ItemsPrice.String(),
		Shipping:      order.ShippingPrice.String(),
		Tax:           order.TaxPrice.String(),
		Total:         order.TotalPrice.String(),
		PaymentMethod: order.PaymentMethod,
		Address:       formatShippingAddress(order.ShippingAddress),
	}
	for _, item := range order.OrderItems {
		lineTotal := item.Price.Mul(int64(item.Quantity))
		info.Items = append(info.Items, email.OrderLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price.String(),
			LineTotal: lineTotal.String(),
		})
	}

	return email.SendOrderConfirmation(ctx, s.provider, info)
}

func formatShippingAddress(addr db.ShippingAddress) string {
	return fmt.Sprintf("%s, %s %s, %s", addr.Address, addr.City, addr.PostalCode, addr.Country)
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *db.Order) error {
	return nil
}
