package ai

import (
	"context"
	"encoding/json"
	"testing"

	"printshop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Embedding the interface lets each fake implement only what the test touches.
type fakeOrderService struct {
	core.OrderService
	listed core.ListParams
}

func (f *fakeOrderService) GetOrder(_ context.Context, id int) (*core.Order, error) {
	if id != 42 {
		return nil, core.ErrNotFound
	}
	return &core.Order{ID: 42, CustomerName: "Asha Traders", TotalAmount: decimal.NewFromInt(1000), Status: core.StatusDesign}, nil
}

func (f *fakeOrderService) StatusHistory(_ context.Context, _ int) ([]core.OrderStatusEntry, error) {
	return []core.OrderStatusEntry{{Status: core.StatusPending}, {Status: core.StatusDesign}}, nil
}

func (f *fakeOrderService) ListOrders(_ context.Context, p core.ListParams) (*core.Page[core.Order], error) {
	f.listed = p
	return &core.Page[core.Order]{Items: []core.Order{}}, nil
}

type fakePaymentService struct{ core.PaymentService }

func (fakePaymentService) ListPayments(_ context.Context, _ int) ([]core.Payment, error) {
	return []core.Payment{{AmountPaid: decimal.NewFromInt(400), PaymentMethod: "UPI"}}, nil
}

func TestShopTools_Catalog(t *testing.T) {
	r := NewShopTools(ShopData{})
	want := []string{
		"get_customer_details", "get_order_details", "get_outstanding_balances", "get_payment_history",
		"get_sales_summary", "list_message_templates", "list_orders_by_status", "list_products",
		"search_customers", "web_search",
	}
	var got []string
	for _, d := range r.All() {
		got = append(got, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
	}
	assert.Equal(t, want, got)
}

func TestShopTools_OrderDetails(t *testing.T) {
	r := NewShopTools(ShopData{Orders: &fakeOrderService{}, Payments: fakePaymentService{}})
	def, _ := r.Get("get_order_details")

	out, err := def.Handler(context.Background(), json.RawMessage(`{"order_id":42}`))
	require.NoError(t, err)

	var decoded struct {
		Order         core.Order              `json:"order"`
		StatusHistory []core.OrderStatusEntry `json:"status_history"`
		Payments      []core.Payment          `json:"payments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Asha Traders", decoded.Order.CustomerName)
	assert.Len(t, decoded.StatusHistory, 2)
	assert.Equal(t, "UPI", decoded.Payments[0].PaymentMethod)

	_, err = def.Handler(context.Background(), json.RawMessage(`{"order_id":7}`))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestShopTools_OrdersByStatus(t *testing.T) {
	orders := &fakeOrderService{}
	def, _ := NewShopTools(ShopData{Orders: orders}).Get("list_orders_by_status")

	_, err := def.Handler(context.Background(), json.RawMessage(`{"status":"Printing"}`))
	require.NoError(t, err)
	assert.Equal(t, "Printing", orders.listed.Status)
	assert.Equal(t, 20, orders.listed.PageSize)

	_, err = def.Handler(context.Background(), json.RawMessage(`{"status":"Shipped"}`))
	assert.ErrorContains(t, err, `unknown status "Shipped"`)
}
