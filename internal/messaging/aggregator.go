package messaging

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"printshop/internal/core"

	"golang.org/x/sync/errgroup"
)

// OrderReader supplies the order summary and line detail. core.OrderService satisfies it.
type OrderReader interface {
	GetOrderSummary(ctx context.Context, orderID int) (*core.OrderSummary, error)
	GetOrderDetail(ctx context.Context, orderID int) (*core.OrderDetail, error)
}

// PaymentReader supplies an order's payments. core.PaymentService satisfies it.
type PaymentReader interface {
	ListPayments(ctx context.Context, orderID int) ([]core.Payment, error)
}

// AggregationError reports which of the aggregator's reads failed. No partial
// OrderContext is ever returned alongside it.
type AggregationError struct {
	OrderID int
	Read    string
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate order %d: %s read failed: %v", e.OrderID, e.Read, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// OrderContext is the denormalized view of one order used to fill message templates.
type OrderContext struct {
	core.OrderSummary
	Quantity       int
	OrderType      string
	Payments       []core.Payment
	PaymentHistory string
	InvoiceURL     string

	format *Formatter
}

// Aggregator joins the order summary, order detail and payment history of one order.
type Aggregator struct {
	orders   OrderReader
	payments PaymentReader
	format   *Formatter
	origin   string
}

// NewAggregator builds an aggregator. origin is the public console origin used for
// invoice links, without a trailing slash.
func NewAggregator(orders OrderReader, payments PaymentReader, format *Formatter, origin string) *Aggregator {
	return &Aggregator{
		orders:   orders,
		payments: payments,
		format:   format,
		origin:   strings.TrimRight(origin, "/"),
	}
}

// Aggregate issues the three reads concurrently. The first failure cancels the
// remaining reads and is returned as an *AggregationError.
func (a *Aggregator) Aggregate(ctx context.Context, customerID, orderID int) (*OrderContext, error) {
	if customerID <= 0 {
		return nil, core.Invalid("customer_id", "a customer must be selected")
	}
	if orderID <= 0 {
		return nil, core.Invalid("order_id", "an order must be selected")
	}

	var (
		summary  *core.OrderSummary
		detail   *core.OrderDetail
		payments []core.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.orders.GetOrderSummary(gctx, orderID)
		if err != nil {
			return &AggregationError{OrderID: orderID, Read: "order summary", Err: err}
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		d, err := a.orders.GetOrderDetail(gctx, orderID)
		if err != nil {
			return &AggregationError{OrderID: orderID, Read: "order detail", Err: err}
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		p, err := a.payments.ListPayments(gctx, orderID)
		if err != nil {
			return &AggregationError{OrderID: orderID, Read: "payment history", Err: err}
		}
		payments = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.CustomerID != customerID {
		return nil, core.Invalid("order_id", "order %d does not belong to customer %d", orderID, customerID)
	}

	payments = slices.Clone(payments)
	slices.SortStableFunc(payments, func(x, y core.Payment) int {
		if c := x.PaymentDate.Compare(y.PaymentDate); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	return &OrderContext{
		OrderSummary:   *summary,
		Quantity:       detail.Quantity,
		OrderType:      detail.OrderType,
		Payments:       payments,
		PaymentHistory: a.history(payments),
		InvoiceURL:     a.origin + "/invoices/" + strconv.Itoa(orderID),
		format:         a.format,
	}, nil
}

func (a *Aggregator) history(payments []core.Payment) string {
	if len(payments) == 0 {
		return a.format.NoPayments()
	}
	lines := make([]string, len(payments))
	for i, p := range payments {
		lines[i] = fmt.Sprintf("• %s via %s on %s", a.format.Amount(p.AmountPaid), p.PaymentMethod, a.format.Date(p.PaymentDate))
	}
	return strings.Join(lines, "\n")
}

// Vars returns the template variables for this order. Amounts are grouped per the
// display locale; dates are DD/MM/YYYY; an unset delivery date is nil.
func (o *OrderContext) Vars() Vars {
	var delivery any
	if o.DeliveryDate != nil {
		delivery = o.format.Date(*o.DeliveryDate)
	}
	return Vars{
		"customer_name":   o.CustomerName,
		"customer_phone":  o.CustomerPhone,
		"order_id":        o.OrderID,
		"order_type":      o.OrderType,
		"quantity":        o.format.Integer(int64(o.Quantity)),
		"total_amount":    o.format.Amount(o.TotalAmount),
		"amount_paid":     o.format.Amount(o.AmountPaid),
		"balance_due":     o.format.Amount(o.BalanceDue),
		"delivery_date":   delivery,
		"status":          string(o.Status),
		"payment_history": o.PaymentHistory,
		"invoice_link":    o.InvoiceURL,
	}
}

// CustomerVars returns the variables available when no order is selected.
func CustomerVars(c *core.Customer, f *Formatter, today time.Time) Vars {
	return Vars{
		"customer_name":    c.Name,
		"customer_phone":   c.Phone,
		"customer_email":   c.Email,
		"customer_address": c.Address,
		"today":            f.Date(today),
	}
}
