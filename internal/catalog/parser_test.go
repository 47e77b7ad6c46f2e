package catalog

import (
	"strings"
	"testing"
)

const validSeed = `
products:
  - name: "Leather Bag"
    brand: "Kano Leatherworks"
    category: "Accessories"
    description: "Hand-stitched leather bag"
    image: "/images/bag.png"
    price: "42.50"
    count_in_stock: 12
  - name: "Indigo Scarf"
    price: "15.00"
    count_in_stock: 30
`

func TestParseSeedFile(t *testing.T) {
	t.Parallel()

	parser := NewParser()
	seed, err := parser.Parse([]byte(validSeed))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	products, err := seed.Rows()
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].Price != 42_50 {
		t.Errorf("price = %s, want 42.50", products[0].Price)
	}
	if products[0].Brand != "Kano Leatherworks" {
		t.Errorf("brand = %q", products[0].Brand)
	}
	if products[1].CountInStock != 30 {
		t.Errorf("count in stock = %d, want 30", products[1].CountInStock)
	}
}

func TestSeedFileRejectsBadEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "empty file",
			yaml: "products: []",
		},
		{
			name: "missing name",
			yaml: `
products:
  - price: "10.00"
`,
		},
		{
			name: "unparseable price",
			yaml: `
products:
  - name: "Thing"
    price: "ten naira"
`,
		},
		{
			name: "too many decimals",
			yaml: `
products:
  - name: "Thing"
    price: "10.005"
`,
		},
		{
			name: "negative stock",
			yaml: `
products:
  - name: "Thing"
    price: "10.00"
    count_in_stock: -1
`,
		},
	}

	parser := NewParser()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			seed, err := parser.Parse([]byte(tc.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := seed.Rows(); err == nil {
				t.Fatal("Rows() accepted an invalid seed file")
			}
		})
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	parser := NewParser()
	if _, err := parser.Parse([]byte("products: [unterminated")); err == nil || !strings.Contains(err.Error(), "YAML") {
		t.Fatalf("Parse() error = %v, want YAML parse failure", err)
	}
}
