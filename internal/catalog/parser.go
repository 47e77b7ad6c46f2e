package catalog

// Package catalog provides seed catalog file parsing.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/money"
)

type SeedFile struct {
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name         string `yaml:"name"`
	Brand        string `yaml:"brand"`
	Category     string `yaml:"category"`
	Description  string `yaml:"description"`
	Image        string `yaml:"image"`
	Price        string `yaml:"price"`
	CountInStock int    `yaml:"count_in_stock"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &seed, nil
}

func (p *Parser) ParseFile(path string) (*SeedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return p.Parse(content)
}

// Rows converts the seed entries into catalog rows, validating as it
// goes. Prices are decimal strings in the file and cents in the
// database.
func (s *SeedFile) Rows() ([]*db.Product, error) {
	if len(s.Products) == 0 {
		return nil, fmt.Errorf("seed file has no products")
	}

	products := make([]*db.Product, 0, len(s.Products))
	for i, entry := range s.Products {
		if entry.Name == "" {
			return nil, fmt.Errorf("product %d: name is required", i)
		}
		price, err := money.Parse(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", entry.Name, err)
		}
		if price < 0 {
			return nil, fmt.Errorf("product %q: price must not be negative", entry.Name)
		}
		if entry.CountInStock < 0 {
			return nil, fmt.Errorf("product %q: count_in_stock must not be negative", entry.Name)
		}

		products = append(products, &db.Product{
			Name:         entry.Name,
			Brand:        entry.Brand,
			Category:     entry.Category,
			Description:  entry.Description,
			Image:        entry.Image,
			Price:        price,
			CountInStock: entry.CountInStock,
		})
	}

	return products, nil
}
