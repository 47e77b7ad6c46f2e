package pricing

// Package pricing computes the authoritative monetary breakdown of an order.

import "github.com/kasuwaapp/kasuwa/internal/money"

// Config holds the business rules for the calculator. The shipping
// threshold and tax rate are merchant policy, so they are injected
// rather than hard-coded.
type Config struct {
	// Orders strictly above this subtotal ship free.
	FreeShippingThreshold money.Cents
	// Flat rate charged below the threshold.
	FlatShippingRate money.Cents
	// Tax rate in basis points, e.g. 850 = 8.5%.
	TaxRateBasisPoints int64
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: 100_00,
		FlatShippingRate:      10_00,
		TaxRateBasisPoints:    850,
	}
}

type LineItem struct {
	UnitPrice money.Cents
	Quantity  int
}

type Quote struct {
	ItemsPrice    money.Cents
	ShippingPrice money.Cents
	TaxPrice      money.Cents
	TotalPrice    money.Cents
}

type Calculator struct {
	config Config
}

func NewCalculator(config Config) *Calculator {
	return &Calculator{config: config}
}

// Quote prices the given line items. It is total over its input:
// validation of quantities and non-emptiness is the caller's job.
func (c *Calculator) Quote(items []LineItem) Quote {
	var itemsPrice money.Cents
	for _, item := range items {
		itemsPrice += item.UnitPrice * money.Cents(item.Quantity)
	}

	shippingPrice := c.config.FlatShippingRate
	if itemsPrice > c.config.FreeShippingThreshold {
		shippingPrice = 0
	}

	taxPrice := roundHalfUpBasisPoints(itemsPrice, c.config.TaxRateBasisPoints)

	return Quote{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shippingPrice,
		TaxPrice:      taxPrice,
		TotalPrice:    itemsPrice + shippingPrice + taxPrice,
	}
}

// roundHalfUpBasisPoints applies a basis-point rate with half-up
// rounding to the nearest cent.
func roundHalfUpBasisPoints(amount money.Cents, basisPoints int64) money.Cents {
	product := int64(amount) * basisPoints
	if product >= 0 {
		return money.Cents((product + 5_000) / 10_000)
	}
	return money.Cents((product - 5_000) / 10_000)
}
