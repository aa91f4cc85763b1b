package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// StatementLine is one order in a customer statement. RunningBalance is the
// cumulative balance due across the customer's orders up to and including this line.
type StatementLine struct {
	OrderID        int             `json:"order_id"`
	OrderType      string          `json:"order_type"`
	CreatedAt      time.Time       `json:"created_at"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// CustomerStatement summarises every order a customer has placed.
type CustomerStatement struct {
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Lines        []StatementLine `json:"lines"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregate queries for the dashboard and the assistant.
type ReportingService interface {
	// SalesSummary calls the get_sales_summary SQL function.
	SalesSummary(ctx context.Context) (*SalesSummary, error)

	// OutstandingBalances returns orders with balance_due > 0, largest first.
	// limit <= 0 means DefaultPageSize.
	OutstandingBalances(ctx context.Context, limit int) ([]OutstandingBalance, error)

	// OverdueOrders returns undelivered orders whose delivery_date is before asOf.
	OverdueOrders(ctx context.Context, asOf time.Time) ([]OutstandingBalance, error)

	// CustomerStatement lists a customer's orders oldest first with a running balance.
	CustomerStatement(ctx context.Context, customerID int) (*CustomerStatement, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	var r SalesSummary
	err := s.pool.QueryRow(ctx, `SELECT * FROM get_sales_summary()`).Scan(
		&r.TotalOrders, &r.PendingOrders, &r.InProgressOrders, &r.DeliveredOrders,
		&r.TotalBilled, &r.TotalCollected, &r.TotalOutstanding, &r.CustomerCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales summary: %w", err)
	}
	return &r, nil
}

const balanceColumns = `o.id, o.customer_id, c.name, c.phone, o.order_type, o.balance_due, o.delivery_date, o.status`

func (s *reportingService) queryBalances(ctx context.Context, q string, args ...any) ([]OutstandingBalance, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	out := []OutstandingBalance{}
	for rows.Next() {
		var b OutstandingBalance
		if err := rows.Scan(&b.OrderID, &b.CustomerID, &b.CustomerName, &b.CustomerPhone,
			&b.OrderType, &b.BalanceDue, &b.DeliveryDate, &b.Status); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *reportingService) OutstandingBalances(ctx context.Context, limit int) ([]OutstandingBalance, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.queryBalances(ctx, `
		SELECT `+balanceColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.balance_due > 0
		ORDER BY o.balance_due DESC, o.id
		LIMIT $1`, limit)
}

func (s *reportingService) OverdueOrders(ctx context.Context, asOf time.Time) ([]OutstandingBalance, error) {
	return s.queryBalances(ctx, `
		SELECT `+balanceColumns+`
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.status <> $1
		  AND o.delivery_date IS NOT NULL
		  AND o.delivery_date < $2::date
		ORDER BY o.delivery_date, o.id`, StatusDelivered, asOf.Format("2006-01-02"))
}

func (s *reportingService) CustomerStatement(ctx context.Context, customerID int) (*CustomerStatement, error) {
	st := &CustomerStatement{CustomerID: customerID, Lines: []StatementLine{}}
	if err := s.pool.QueryRow(ctx, `SELECT name FROM customers WHERE id = $1`, customerID).Scan(&st.CustomerName); err != nil {
		return nil, notFound(err, "customer", customerID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, order_type, created_at, total_amount, amount_paid, balance_due
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement: %w", err)
	}
	defer rows.Close()

	running := decimal.Zero
	for rows.Next() {
		var l StatementLine
		if err := rows.Scan(&l.OrderID, &l.OrderType, &l.CreatedAt, &l.TotalAmount, &l.AmountPaid, &l.BalanceDue); err != nil {
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		running = running.Add(l.BalanceDue)
		l.RunningBalance = running
		st.TotalBilled = st.TotalBilled.Add(l.TotalAmount)
		st.TotalPaid = st.TotalPaid.Add(l.AmountPaid)
		st.Lines = append(st.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	st.TotalDue = running
	return st, nil
}
