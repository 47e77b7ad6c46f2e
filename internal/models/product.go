package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/money"
)

type Product struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Brand        string      `json:"brand"`
	Category     string      `json:"category"`
	Description  string      `json:"description"`
	Image        string      `json:"image"`
	Price        money.Cents `json:"price"`
	CountInStock int         `json:"count_in_stock"`
	CreatedAt    time.Time   `json:"created_at"`
}
