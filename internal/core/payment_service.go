package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentInput records money received against an order. PaymentDate defaults to today.
type PaymentInput struct {
	OrderID       int
	AmountPaid    decimal.Decimal
	PaymentDate   *time.Time
	PaymentMethod string
	RecordedBy    *int
}

// PaymentService appends payments and keeps the order's paid/balance columns in step.
type PaymentService interface {
	// RecordPayment inserts the payment and recomputes amount_paid and balance_due from the
	// sum of the order's payments, all under a row lock on the order.
	RecordPayment(ctx context.Context, in PaymentInput) (*Payment, *Order, error)
	// ListPayments returns an order's payments oldest first.
	ListPayments(ctx context.Context, orderID int) ([]Payment, error)
}

type paymentService struct {
	pool *pgxpool.Pool
}

func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

func (s *paymentService) RecordPayment(ctx context.Context, in PaymentInput) (*Payment, *Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := recordPaymentTx(ctx, tx, in)
	if err != nil {
		return nil, nil, err
	}

	order, err := getOrder(ctx, tx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return payment, order, nil
}

// recordPaymentTx is shared by RecordPayment and CreateOrder's initial payment.
func recordPaymentTx(ctx context.Context, tx pgx.Tx, in PaymentInput) (*Payment, error) {
	if !in.AmountPaid.IsPositive() {
		return nil, Invalid("amount_paid", "must be greater than zero")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, Invalid("payment_method", "is required")
	}

	var customerID int
	var total decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT customer_id, total_amount FROM orders WHERE id = $1 FOR UPDATE
	`, in.OrderID).Scan(&customerID, &total)
	if err != nil {
		return nil, notFound(err, "order", in.OrderID)
	}

	var alreadyPaid decimal.Decimal
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE order_id = $1
	`, in.OrderID).Scan(&alreadyPaid); err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	paid := alreadyPaid.Add(in.AmountPaid)
	balance := total.Sub(paid)
	if balance.IsNegative() {
		return nil, Invalid("amount_paid", "payment of %s exceeds balance due %s",
			in.AmountPaid.StringFixed(2), total.Sub(alreadyPaid).StringFixed(2))
	}

	status := PaymentPartial
	if balance.IsZero() {
		status = PaymentPaid
	}

	paymentDate := time.Now()
	if in.PaymentDate != nil {
		paymentDate = *in.PaymentDate
	}

	var p Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (order_id, customer_id, amount_paid, payment_date, payment_method, status, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, order_id, customer_id, amount_paid, payment_date, payment_method, status, recorded_by, created_at
	`, in.OrderID, customerID, in.AmountPaid, paymentDate, method, status, in.RecordedBy).Scan(
		&p.ID, &p.OrderID, &p.CustomerID, &p.AmountPaid, &p.PaymentDate, &p.PaymentMethod,
		&p.Status, &p.RecordedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET amount_paid = $2, balance_due = $3 WHERE id = $1
	`, in.OrderID, paid, balance); err != nil {
		return nil, fmt.Errorf("failed to update order balance: %w", err)
	}

	return &p, nil
}

func (s *paymentService) ListPayments(ctx context.Context, orderID int) ([]Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, customer_id, amount_paid, payment_date, payment_method, status, recorded_by, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY payment_date, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.CustomerID, &p.AmountPaid, &p.PaymentDate,
			&p.PaymentMethod, &p.Status, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}
