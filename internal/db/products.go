package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasuwaapp/kasuwa/internal/money"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, name, brand, category, description, image, price_cents, count_in_stock, created_at`

func (s *ProductStore) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (name, brand, category, description, image, price_cents, count_in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		product.Name, product.Brand, product.Category, product.Description,
		product.Image, int64(product.Price), product.CountInStock,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, productID uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(s.pool.QueryRow(ctx, query, productID))
}

// GetByIDs resolves the given ids in a single query. Missing ids are
// simply absent from the result; the caller decides whether that is an
// error.
func (s *ProductStore) GetByIDs(ctx context.Context, productIDs []uuid.UUID) ([]*Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *ProductStore) List(ctx context.Context, limit int) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(row orderScanner) (*Product, error) {
	var product Product
	var priceCents int64

	err := row.Scan(
		&product.ID, &product.Name, &product.Brand, &product.Category,
		&product.Description, &product.Image, &priceCents, &product.CountInStock,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Price = money.Cents(priceCents)
	return &product, nil
}
