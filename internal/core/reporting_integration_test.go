package core_test

import (
	"context"
	"testing"
	"time"

	"printshop/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportingService_SummaryAndBalances(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	orders := core.NewOrderService(pool)
	reports := core.NewReportingService(pool)

	past := time.Now().AddDate(0, 0, -3)
	a, _, err := orders.CreateOrder(ctx, core.CreateOrderInput{
		CustomerID: 1, OrderType: "Brochures", Quantity: 100, TotalAmount: dec("1500"), DeliveryDate: &past,
		InitialPayment: &core.PaymentInput{AmountPaid: dec("500"), PaymentMethod: "UPI"},
	})
	require.NoError(t, err)
	b, _, err := orders.CreateOrder(ctx, core.CreateOrderInput{
		CustomerID: 2, OrderType: "Posters", Quantity: 10, TotalAmount: dec("400"),
		InitialPayment: &core.PaymentInput{AmountPaid: dec("400"), PaymentMethod: "Cash"},
	})
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, b.ID, core.StatusDelivered, "", nil)
	require.NoError(t, err)

	sum, err := reports.SalesSummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.TotalOrders)
	assert.EqualValues(t, 1, sum.PendingOrders)
	assert.EqualValues(t, 1, sum.DeliveredOrders)
	assert.EqualValues(t, 2, sum.CustomerCount)
	assert.True(t, sum.TotalBilled.Equal(dec("1900")))
	assert.True(t, sum.TotalCollected.Equal(dec("900")))
	assert.True(t, sum.TotalOutstanding.Equal(dec("1000")))

	balances, err := reports.OutstandingBalances(ctx, 0)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, a.ID, balances[0].OrderID)
	assert.Equal(t, "+91 98000 00001", balances[0].CustomerPhone)

	overdue, err := reports.OverdueOrders(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, a.ID, overdue[0].OrderID)

	st, err := reports.CustomerStatement(ctx, 1)
	require.NoError(t, err)
	require.Len(t, st.Lines, 1)
	assert.True(t, st.TotalDue.Equal(dec("1000")))
}
