package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerInput is the writable subset of Customer.
type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Tags    []string
}

// CustomerService manages customer master records.
type CustomerService interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	// ListCustomers supports Search (name or phone, case-insensitive) and sorting by
	// name, created_at or id.
	ListCustomers(ctx context.Context, p ListParams) (*Page[Customer], error)
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

var customerSortColumns = map[string]string{
	"id":         "id",
	"name":       "lower(name)",
	"created_at": "created_at",
}

const customerColumns = `id, name, phone, email, address, tags, created_at`

func scanCustomer(row interface{ Scan(...any) error }, c *Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Tags, &c.CreatedAt)
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", "is required")
	}
	return nil
}

// normalizeTags trims, drops empties and deduplicates while keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c Customer
	err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email),
		strings.TrimSpace(in.Address), normalizeTags(in.Tags),
	), &c)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c Customer
	err := scanCustomer(s.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, address = $5, tags = $6
		WHERE id = $1
		RETURNING `+customerColumns,
		id, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email),
		strings.TrimSpace(in.Address), normalizeTags(in.Tags),
	), &c)
	if err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var c Customer
	err := scanCustomer(s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	), &c)
	if err != nil {
		return nil, notFound(err, "customer", id)
	}
	return &c, nil
}

func (s *customerService) ListCustomers(ctx context.Context, p ListParams) (*Page[Customer], error) {
	p = p.normalized()

	where := "WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')"

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers `+where, p.Search).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers `+where+`
		`+p.orderClause(customerSortColumns, "id")+`
		LIMIT $2 OFFSET $3`,
		p.Search, p.PageSize, p.offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	page := &Page[Customer]{Items: []Customer{}, Total: total, Page: p.Page, PageSize: p.PageSize}
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		page.Items = append(page.Items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return page, nil
}
