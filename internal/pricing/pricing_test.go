package pricing

import (
	"testing"

	"github.com/kasuwaapp/kasuwa/internal/money"
)

func TestCalculator_Quote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		items        []LineItem
		wantItems    money.Cents
		wantShipping money.Cents
		wantTax      money.Cents
		wantTotal    money.Cents
	}{
		{
			// 2 x 30.00 + 1 x 25.00 = 85.00, flat shipping, 8.5% tax
			name: "subtotal below free shipping threshold",
			items: []LineItem{
				{UnitPrice: 30_00, Quantity: 2},
				{UnitPrice: 25_00, Quantity: 1},
			},
			wantItems:    85_00,
			wantShipping: 10_00,
			wantTax:      7_23,
			wantTotal:    102_23,
		},
		{
			name: "subtotal exactly at threshold still pays shipping",
			items: []LineItem{
				{UnitPrice: 50_00, Quantity: 2},
			},
			wantItems:    100_00,
			wantShipping: 10_00,
			wantTax:      8_50,
			wantTotal:    118_50,
		},
		{
			name: "subtotal above threshold ships free",
			items: []LineItem{
				{UnitPrice: 100_01, Quantity: 1},
			},
			wantItems:    100_01,
			wantShipping: 0,
			wantTax:      8_50,
			wantTotal:    108_51,
		},
		{
			name: "tax rounds half up",
			items: []LineItem{
				// 10.06 * 0.085 = 0.8551 -> 0.86
				{UnitPrice: 10_06, Quantity: 1},
			},
			wantItems:    10_06,
			wantShipping: 10_00,
			wantTax:      86,
			wantTotal:    20_92,
		},
	}

	calculator := NewCalculator(DefaultConfig())

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			quote := calculator.Quote(tt.items)

			if quote.ItemsPrice != tt.wantItems {
				t.Errorf("ItemsPrice = %s, want %s", quote.ItemsPrice, tt.wantItems)
			}
			if quote.ShippingPrice != tt.wantShipping {
				t.Errorf("ShippingPrice = %s, want %s", quote.ShippingPrice, tt.wantShipping)
			}
			if quote.TaxPrice != tt.wantTax {
				t.Errorf("TaxPrice = %s, want %s", quote.TaxPrice, tt.wantTax)
			}
			if quote.TotalPrice != tt.wantTotal {
				t.Errorf("TotalPrice = %s, want %s", quote.TotalPrice, tt.wantTotal)
			}
		})
	}
}

func TestQuoteTotalIsSumOfParts(t *testing.T) {
	t.Parallel()

	calculator := NewCalculator(DefaultConfig())

	itemSets := [][]LineItem{
		{{UnitPrice: 1, Quantity: 1}},
		{{UnitPrice: 33_33, Quantity: 3}},
		{{UnitPrice: 19_99, Quantity: 2}, {UnitPrice: 5_49, Quantity: 7}},
		{{UnitPrice: 250_00, Quantity: 1}, {UnitPrice: 12, Quantity: 11}},
	}

	for _, items := range itemSets {
		quote := calculator.Quote(items)
		if got := quote.ItemsPrice + quote.ShippingPrice + quote.TaxPrice; got != quote.TotalPrice {
			t.Errorf("total %s != items %s + shipping %s + tax %s",
				quote.TotalPrice, quote.ItemsPrice, quote.ShippingPrice, quote.TaxPrice)
		}
	}
}

func TestQuoteHonorsCustomConfig(t *testing.T) {
	t.Parallel()

	calculator := NewCalculator(Config{
		FreeShippingThreshold: 50_00,
		FlatShippingRate:      5_00,
		TaxRateBasisPoints:    1000,
	})

	quote := calculator.Quote([]LineItem{{UnitPrice: 60_00, Quantity: 1}})

	if quote.ShippingPrice != 0 {
		t.Errorf("ShippingPrice = %s, want 0.00", quote.ShippingPrice)
	}
	if quote.TaxPrice != 6_00 {
		t.Errorf("TaxPrice = %s, want 6.00", quote.TaxPrice)
	}
}
