package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageLogService appends and lists sent-message records. There is no update or delete path.
type MessageLogService interface {
	AppendLog(ctx context.Context, entry MessageLog) (*MessageLog, error)
	// ListLogs returns the newest entries first; customerID 0 means all customers.
	ListLogs(ctx context.Context, customerID int, p ListParams) (*Page[MessageLog], error)
}

type messageLogService struct {
	pool *pgxpool.Pool
}

func NewMessageLogService(pool *pgxpool.Pool) MessageLogService {
	return &messageLogService{pool: pool}
}

func (s *messageLogService) AppendLog(ctx context.Context, entry MessageLog) (*MessageLog, error) {
	if entry.CustomerID <= 0 {
		return nil, Invalid("customer_id", "a customer must be selected")
	}
	if strings.TrimSpace(entry.Message) == "" {
		return nil, Invalid("message", "is required")
	}
	if strings.TrimSpace(entry.Phone) == "" {
		return nil, Invalid("phone", "is required")
	}

	var m MessageLog
	err := s.pool.QueryRow(ctx, `
		INSERT INTO message_logs (customer_id, phone, message, template_name, sent_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, customer_id, phone, message, template_name, sent_by, sent_at
	`, entry.CustomerID, entry.Phone, entry.Message, entry.TemplateName, entry.SentBy).Scan(
		&m.ID, &m.CustomerID, &m.Phone, &m.Message, &m.TemplateName, &m.SentBy, &m.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message log: %w", err)
	}
	return &m, nil
}

func (s *messageLogService) ListLogs(ctx context.Context, customerID int, p ListParams) (*Page[MessageLog], error) {
	p = p.normalized()

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM message_logs WHERE ($1 = 0 OR customer_id = $1)`, customerID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count message logs: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, phone, message, template_name, sent_by, sent_at
		FROM message_logs
		WHERE ($1 = 0 OR customer_id = $1)
		ORDER BY sent_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, customerID, p.PageSize, p.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query message logs: %w", err)
	}
	defer rows.Close()

	page := &Page[MessageLog]{Items: []MessageLog{}, Total: total, Page: p.Page, PageSize: p.PageSize}
	for rows.Next() {
		var m MessageLog
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Phone, &m.Message, &m.TemplateName, &m.SentBy, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		page.Items = append(page.Items, m)
	}
	return page, rows.Err()
}
