package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"printshop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeOrders struct {
	summary    *core.OrderSummary
	summaryErr error
	detail     *core.OrderDetail
	detailErr  error
	calls      atomic.Int32
}

func (f *fakeOrders) GetOrderSummary(_ context.Context, _ int) (*core.OrderSummary, error) {
	f.calls.Add(1)
	return f.summary, f.summaryErr
}

func (f *fakeOrders) GetOrderDetail(_ context.Context, _ int) (*core.OrderDetail, error) {
	f.calls.Add(1)
	return f.detail, f.detailErr
}

type fakePayments struct {
	payments []core.Payment
	err      error
	// block makes ListPayments wait for cancellation.
	block     bool
	cancelled atomic.Bool
}

func (f *fakePayments) ListPayments(ctx context.Context, _ int) ([]core.Payment, error) {
	if f.block {
		<-ctx.Done()
		f.cancelled.Store(true)
		return nil, ctx.Err()
	}
	return f.payments, f.err
}

func day(d int) time.Time { return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC) }

func sampleOrders() *fakeOrders {
	delivery := day(20)
	return &fakeOrders{
		summary: &core.OrderSummary{
			OrderID:       42,
			CustomerID:    7,
			CustomerName:  "Asha Traders",
			CustomerPhone: "+91 98000 00001",
			TotalAmount:   decimal.NewFromInt(1000),
			AmountPaid:    decimal.NewFromInt(700),
			BalanceDue:    decimal.NewFromInt(300),
			DeliveryDate:  &delivery,
			Status:        core.StatusPrinting,
		},
		detail: &core.OrderDetail{OrderID: 42, Quantity: 500, OrderType: "Visiting Cards"},
	}
}

func newTestAggregator(o OrderReader, p PaymentReader) *Aggregator {
	return NewAggregator(o, p, NewFormatter("en-IN"), "https://console.example/")
}

// ---- tests ----

func TestAggregate_BalanceAndHistoryOldestFirst(t *testing.T) {
	payments := &fakePayments{payments: []core.Payment{
		{ID: 2, AmountPaid: decimal.NewFromInt(300), PaymentMethod: "Cash", PaymentDate: day(10)},
		{ID: 1, AmountPaid: decimal.NewFromInt(400), PaymentMethod: "UPI", PaymentDate: day(5)},
	}}
	agg := newTestAggregator(sampleOrders(), payments)

	oc, err := agg.Aggregate(context.Background(), 7, 42)
	require.NoError(t, err)

	assert.True(t, oc.BalanceDue.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "• 400 via UPI on 05/01/2026\n• 300 via Cash on 10/01/2026", oc.PaymentHistory)
	assert.Equal(t, "https://console.example/invoices/42", oc.InvoiceURL)

	vars := oc.Vars()
	assert.Equal(t, "300", vars["balance_due"])
	assert.Equal(t, "1,000", vars["total_amount"])
	assert.Equal(t, "20/01/2026", vars["delivery_date"])
	assert.Equal(t, "Visiting Cards", vars["order_type"])
	assert.Equal(t, "500", vars["quantity"])
}

func TestAggregate_NoPaymentsSentinel(t *testing.T) {
	orders := sampleOrders()
	orders.summary.DeliveryDate = nil
	agg := newTestAggregator(orders, &fakePayments{})

	oc, err := agg.Aggregate(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, "No payments yet", oc.PaymentHistory)

	res := Render("Due by {{delivery_date}}.", oc.Vars())
	assert.Equal(t, "Due by .", res.Text)
	assert.Empty(t, res.Missing)
}

func TestAggregate_AllOrNothing(t *testing.T) {
	boom := errors.New("connection reset")
	agg := newTestAggregator(sampleOrders(), &fakePayments{err: boom})

	oc, err := agg.Aggregate(context.Background(), 7, 42)
	assert.Nil(t, oc)

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "payment history", aggErr.Read)
	assert.Equal(t, 42, aggErr.OrderID)
	assert.ErrorIs(t, err, boom)
}

func TestAggregate_FailureCancelsOtherReads(t *testing.T) {
	orders := sampleOrders()
	orders.summaryErr = core.ErrNotFound
	payments := &fakePayments{block: true}
	agg := newTestAggregator(orders, payments)

	_, err := agg.Aggregate(context.Background(), 7, 42)

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "order summary", aggErr.Read)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.True(t, payments.cancelled.Load())
}

func TestAggregate_RejectsForeignOrder(t *testing.T) {
	agg := newTestAggregator(sampleOrders(), &fakePayments{})

	_, err := agg.Aggregate(context.Background(), 8, 42)
	assert.True(t, core.IsValidation(err))
}

func TestAggregate_ValidatesBeforeReading(t *testing.T) {
	orders := sampleOrders()
	agg := newTestAggregator(orders, &fakePayments{})

	_, err := agg.Aggregate(context.Background(), 0, 42)
	assert.True(t, core.IsValidation(err))
	_, err = agg.Aggregate(context.Background(), 7, 0)
	assert.True(t, core.IsValidation(err))
	assert.Zero(t, orders.calls.Load())
}
