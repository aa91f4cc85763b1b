package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"printshop/internal/core"
	"printshop/internal/messaging"
	"printshop/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReports struct {
	orders []core.OutstandingBalance
	err    error
	asOf   time.Time
}

func (f *fakeReports) OverdueOrders(_ context.Context, asOf time.Time) ([]core.OutstandingBalance, error) {
	f.asOf = asOf
	return f.orders, f.err
}

type recordingPublisher struct {
	notify.Nop
	published []notify.Notification
	failFor   int
}

func (r *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	if n.EntityID == r.failFor {
		return errors.New("redis down")
	}
	r.published = append(r.published, n)
	return nil
}

func TestOverdueSweep_NotifiesOnlyOrdersWithBalance(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	reports := &fakeReports{orders: []core.OutstandingBalance{
		{OrderID: 1, CustomerName: "Asha Traders", CustomerPhone: "98000 00001", OrderType: "Banners", BalanceDue: decimal.NewFromInt(1500), DeliveryDate: &due},
		{OrderID: 2, CustomerName: "Bharat Prints", BalanceDue: decimal.Zero, DeliveryDate: &due},
		{OrderID: 3, CustomerName: "Chitra Studio", BalanceDue: decimal.NewFromInt(10), DeliveryDate: &due},
	}}
	pub := &recordingPublisher{failFor: 3}
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	sweep := NewOverdueSweep(reports, pub, messaging.NewFormatter("en-IN"), loc, zap.NewNop())
	sweep.now = func() time.Time { return time.Date(2026, 1, 9, 20, 0, 0, 0, time.UTC) }

	n, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, reports.asOf.Day(), "sweep date is taken in the shop's time zone")

	require.Len(t, pub.published, 1)
	got := pub.published[0]
	assert.Equal(t, notify.KindOverdue, got.Kind)
	assert.Equal(t, "Order #1 is overdue", got.Title)
	assert.Equal(t, "Asha Traders (98000 00001) owes 1,500 on Banners, due 05/01/2026.", got.Body)
}

func TestOverdueSweep_ReadFailure(t *testing.T) {
	sweep := NewOverdueSweep(&fakeReports{err: errors.New("timeout")}, &recordingPublisher{}, messaging.NewFormatter("en"), time.UTC, zap.NewNop())
	_, err := sweep.Run(context.Background())
	assert.ErrorContains(t, err, "overdue sweep: timeout")
}
