package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages the product catalog.
type CatalogService interface {
	CreateProduct(ctx context.Context, name, category string, unitPrice decimal.Decimal, unit string) (*Product, error)
	// ListProducts returns active products; Search matches name or category.
	ListProducts(ctx context.Context, search string) ([]Product, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateProduct(ctx context.Context, name, category string, unitPrice decimal.Decimal, unit string) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Invalid("name", "is required")
	}
	if unitPrice.IsNegative() {
		return nil, Invalid("unit_price", "must not be negative")
	}
	if strings.TrimSpace(unit) == "" {
		unit = "piece"
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, category, unit_price, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, category, unit_price, unit, is_active, created_at
	`, strings.TrimSpace(name), strings.TrimSpace(category), unitPrice, unit).Scan(
		&p.ID, &p.Name, &p.Category, &p.UnitPrice, &p.Unit, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *catalogService) ListProducts(ctx context.Context, search string) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, unit_price, unit, is_active, created_at
		FROM products
		WHERE is_active = true
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		ORDER BY category, name
	`, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.UnitPrice, &p.Unit, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
