package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries pagination, sorting and filtering for list queries.
// SortBy must name a column in the target table's whitelist; anything else falls back
// to the table's default ordering.
type ListParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
	Search   string
	Status   string

	// CustomerID restricts order lists to one customer when non-zero.
	CustomerID int
}

// Page is one page of a list query plus the unpaginated total.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.PageSize
}

// orderClause builds "ORDER BY col [DESC]" from the whitelist; never interpolates raw input.
func (p ListParams) orderClause(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		return "ORDER BY " + fallback
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, %s", col, dir, fallback)
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}
