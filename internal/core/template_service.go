package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateService reads and authors message templates.
type TemplateService interface {
	CreateTemplate(ctx context.Context, name, category, body string) (*MessageTemplate, error)
	GetTemplate(ctx context.Context, id int) (*MessageTemplate, error)
	GetTemplateBySlug(ctx context.Context, slug string) (*MessageTemplate, error)
	// ListTemplates optionally filters by category.
	ListTemplates(ctx context.Context, category string) ([]MessageTemplate, error)
}

type templateService struct {
	pool *pgxpool.Pool
}

func NewTemplateService(pool *pgxpool.Pool) TemplateService {
	return &templateService{pool: pool}
}

const templateColumns = `id, name, slug, category, body, created_at`

func scanTemplate(row interface{ Scan(...any) error }, t *MessageTemplate) error {
	return row.Scan(&t.ID, &t.Name, &t.Slug, &t.Category, &t.Body, &t.CreatedAt)
}

// CreateTemplate derives a unique slug from name, suffixing -2, -3, ... on collision.
func (s *templateService) CreateTemplate(ctx context.Context, name, category, body string) (*MessageTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, Invalid("body", "is required")
	}
	if strings.TrimSpace(category) == "" {
		category = "general"
	}

	base := slug.Make(name)
	if base == "" {
		return nil, Invalid("name", "must contain letters or digits")
	}
	candidate := base
	for i := 2; ; i++ {
		var taken bool
		if err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM message_templates WHERE slug = $1)", candidate).Scan(&taken); err != nil {
			return nil, fmt.Errorf("failed to check template slug: %w", err)
		}
		if !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	var t MessageTemplate
	err := scanTemplate(s.pool.QueryRow(ctx, `
		INSERT INTO message_templates (name, slug, category, body)
		VALUES ($1, $2, $3, $4)
		RETURNING `+templateColumns,
		name, candidate, strings.TrimSpace(category), body,
	), &t)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &t, nil
}

func (s *templateService) GetTemplate(ctx context.Context, id int) (*MessageTemplate, error) {
	var t MessageTemplate
	if err := scanTemplate(s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE id = $1`, id), &t); err != nil {
		return nil, notFound(err, "template", id)
	}
	return &t, nil
}

func (s *templateService) GetTemplateBySlug(ctx context.Context, key string) (*MessageTemplate, error) {
	var t MessageTemplate
	if err := scanTemplate(s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE slug = $1`, key), &t); err != nil {
		return nil, notFound(err, "template", key)
	}
	return &t, nil
}

func (s *templateService) ListTemplates(ctx context.Context, category string) ([]MessageTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM message_templates
		WHERE ($1 = '' OR category = $1)
		ORDER BY category, name
	`, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := []MessageTemplate{}
	for rows.Next() {
		var t MessageTemplate
		if err := scanTemplate(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
