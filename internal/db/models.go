package db

import "github.com/kasuwaapp/kasuwa/internal/models"

type User = models.User
type Product = models.Product
type Order = models.Order
type OrderItem = models.OrderItem
type PaymentResult = models.PaymentResult
type ShippingAddress = models.ShippingAddress
