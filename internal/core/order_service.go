package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreateOrderInput is used when creating a new order. InitialPayment, when set, is
// recorded in the same transaction as the order.
type CreateOrderInput struct {
	CustomerID     int
	OrderType      string
	Quantity       int
	TotalAmount    decimal.Decimal
	DeliveryDate   *time.Time
	Notes          string
	CreatedBy      *int
	InitialPayment *PaymentInput
}

// OrderService manages print orders and their status history.
type OrderService interface {
	// CreateOrder inserts the order, its first status log entry and the optional initial
	// payment atomically. The returned payment is nil when no initial payment was given.
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, *Payment, error)
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	// ListOrders supports Status, CustomerID and Search (customer name or order type)
	// filters and sorting by id, created_at, delivery_date, total_amount or balance_due.
	ListOrders(ctx context.Context, p ListParams) (*Page[Order], error)
	// UpdateStatus appends a status log entry and moves the order to status.
	UpdateStatus(ctx context.Context, orderID int, status OrderStatus, note string, changedBy *int) (*Order, error)
	StatusHistory(ctx context.Context, orderID int) ([]OrderStatusEntry, error)

	// GetOrderSummary calls the get_order_summary SQL function.
	GetOrderSummary(ctx context.Context, orderID int) (*OrderSummary, error)
	GetOrderDetail(ctx context.Context, orderID int) (*OrderDetail, error)
}

type orderService struct {
	pool *pgxpool.Pool
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool}
}

var orderSortColumns = map[string]string{
	"id":            "o.id",
	"created_at":    "o.created_at",
	"delivery_date": "o.delivery_date",
	"total_amount":  "o.total_amount",
	"balance_due":   "o.balance_due",
}

const orderColumns = `o.id, o.customer_id, c.name, o.order_type, o.quantity, o.total_amount, o.amount_paid,
	o.balance_due, o.delivery_date, o.status, o.notes, o.created_by, o.created_at`

func scanOrder(row interface{ Scan(...any) error }, o *Order) error {
	return row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.OrderType, &o.Quantity, &o.TotalAmount,
		&o.AmountPaid, &o.BalanceDue, &o.DeliveryDate, &o.Status, &o.Notes, &o.CreatedBy, &o.CreatedAt)
}

func (in CreateOrderInput) validate() error {
	if in.CustomerID <= 0 {
		return Invalid("customer_id", "a customer must be selected")
	}
	if strings.TrimSpace(in.OrderType) == "" {
		return Invalid("order_type", "is required")
	}
	if in.Quantity <= 0 {
		return Invalid("quantity", "must be greater than zero")
	}
	if in.TotalAmount.IsNegative() {
		return Invalid("total_amount", "must not be negative")
	}
	if p := in.InitialPayment; p != nil && p.AmountPaid.GreaterThan(in.TotalAmount) {
		return Invalid("initial_payment", "amount %s exceeds order total %s", p.AmountPaid.StringFixed(2), in.TotalAmount.StringFixed(2))
	}
	return nil
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, *Payment, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", in.CustomerID).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("failed to verify customer: %w", err)
	}
	if !exists {
		return nil, nil, Invalid("customer_id", "customer %d does not exist", in.CustomerID)
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, order_type, quantity, total_amount, amount_paid, balance_due,
			delivery_date, status, notes, created_by)
		VALUES ($1, $2, $3, $4, 0, $4, $5, $6, $7, $8)
		RETURNING id
	`, in.CustomerID, strings.TrimSpace(in.OrderType), in.Quantity, in.TotalAmount,
		in.DeliveryDate, StatusPending, in.Notes, in.CreatedBy).Scan(&orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, note, changed_by) VALUES ($1, $2, $3, $4)
	`, orderID, StatusPending, "Order created", in.CreatedBy); err != nil {
		return nil, nil, fmt.Errorf("failed to insert status log: %w", err)
	}

	var payment *Payment
	if in.InitialPayment != nil && in.InitialPayment.AmountPaid.IsPositive() {
		p := *in.InitialPayment
		p.OrderID = orderID
		payment, err = recordPaymentTx(ctx, tx, p)
		if err != nil {
			return nil, nil, err
		}
	}

	order, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, payment, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int, status OrderStatus, note string, changedBy *int) (*Order, error) {
	if !status.Valid() {
		return nil, Invalid("status", "unknown status %q", status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE orders SET status = $2 WHERE id = $1", orderID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, note, changed_by) VALUES ($1, $2, $3, $4)
	`, orderID, status, note, changedBy); err != nil {
		return nil, fmt.Errorf("failed to insert status log: %w", err)
	}

	order, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return order, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func getOrder(ctx context.Context, q pgxQuerier, orderID int) (*Order, error) {
	var o Order
	err := scanOrder(q.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, orderID), &o)
	if err != nil {
		return nil, notFound(err, "order", orderID)
	}
	return &o, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	return getOrder(ctx, s.pool, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, p ListParams) (*Page[Order], error) {
	p = p.normalized()
	if p.Status != "" && !OrderStatus(p.Status).Valid() {
		return nil, Invalid("status", "unknown status %q", p.Status)
	}

	where := `
		WHERE ($1 = '' OR o.status = $1)
		  AND ($2 = 0 OR o.customer_id = $2)
		  AND ($3 = '' OR c.name ILIKE '%' || $3 || '%' OR o.order_type ILIKE '%' || $3 || '%')`
	args := []any{p.Status, p.CustomerID, p.Search}

	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id `+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		`+where+`
		`+p.orderClause(orderSortColumns, "o.id DESC")+`
		LIMIT $4 OFFSET $5`,
		append(args, p.PageSize, p.offset())...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	page := &Page[Order]{Items: []Order{}, Total: total, Page: p.Page, PageSize: p.PageSize}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		page.Items = append(page.Items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return page, nil
}

func (s *orderService) StatusHistory(ctx context.Context, orderID int) ([]OrderStatusEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, status, note, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	entries := []OrderStatusEntry{}
	for rows.Next() {
		var e OrderStatusEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Note, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *orderService) GetOrderSummary(ctx context.Context, orderID int) (*OrderSummary, error) {
	var o OrderSummary
	err := s.pool.QueryRow(ctx, `SELECT * FROM get_order_summary($1)`, orderID).Scan(
		&o.OrderID, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &o.TotalAmount,
		&o.AmountPaid, &o.BalanceDue, &o.DeliveryDate, &o.Status,
	)
	if err != nil {
		return nil, notFound(err, "order summary", orderID)
	}
	return &o, nil
}

func (s *orderService) GetOrderDetail(ctx context.Context, orderID int) (*OrderDetail, error) {
	d := OrderDetail{OrderID: orderID}
	err := s.pool.QueryRow(ctx, `SELECT quantity, order_type FROM orders WHERE id = $1`, orderID).Scan(&d.Quantity, &d.OrderType)
	if err != nil {
		return nil, notFound(err, "order detail", orderID)
	}
	return &d, nil
}
