package messaging

import (
	"context"
	"testing"
	"time"

	"printshop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomers struct {
	customer *core.Customer
	calls    int
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id int) (*core.Customer, error) {
	f.calls++
	if f.customer == nil || f.customer.ID != id {
		return nil, core.ErrNotFound
	}
	return f.customer, nil
}

type fakeTemplates map[int]*core.MessageTemplate

func (f fakeTemplates) GetTemplate(_ context.Context, id int) (*core.MessageTemplate, error) {
	t, ok := f[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return t, nil
}

func newTestComposer(customers *fakeCustomers) *Composer {
	templates := fakeTemplates{
		1: {ID: 1, Name: "Payment Reminder", Body: "Hi {{customer_name}}, ₹{{balance_due}} is due for order #{{order_id}}.\n{{payment_history}}\nInvoice: {{invoice_link}}"},
		2: {ID: 2, Name: "Greeting", Body: "Hello {{customer_name}}, today is {{today}}. {{discount_code}}"},
	}
	payments := &fakePayments{payments: []core.Payment{
		{ID: 1, AmountPaid: decimal.NewFromInt(400), PaymentMethod: "UPI", PaymentDate: day(5)},
		{ID: 2, AmountPaid: decimal.NewFromInt(300), PaymentMethod: "Cash", PaymentDate: day(10)},
	}}
	f := NewFormatter("en-IN")
	c := NewComposer(customers, templates, NewAggregator(sampleOrders(), payments, f, "https://console.example"), f, time.UTC)
	c.now = func() time.Time { return time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC) }
	return c
}

func asha() *fakeCustomers {
	return &fakeCustomers{customer: &core.Customer{ID: 7, Name: "Asha Traders", Phone: "+91 98000 00001"}}
}

func TestCompose_OrderTemplate(t *testing.T) {
	msg, err := newTestComposer(asha()).Compose(context.Background(), ComposeRequest{CustomerID: 7, OrderID: 42, TemplateID: 1})
	require.NoError(t, err)

	assert.Equal(t, "Payment Reminder", msg.TemplateName)
	assert.Equal(t, "Hi Asha Traders, ₹300 is due for order #42.\n• 400 via UPI on 05/01/2026\n• 300 via Cash on 10/01/2026\nInvoice: https://console.example/invoices/42", msg.Text)
	assert.Empty(t, msg.Missing)
	assert.Contains(t, msg.WhatsAppURL, "https://wa.me/919800000001?text=Hi%20Asha%20Traders")
}

func TestCompose_CustomerOnlyReportsMissing(t *testing.T) {
	msg, err := newTestComposer(asha()).Compose(context.Background(), ComposeRequest{CustomerID: 7, TemplateID: 2})
	require.NoError(t, err)

	assert.Equal(t, "Hello Asha Traders, today is 01/02/2026. ", msg.Text)
	assert.Equal(t, []string{"discount_code"}, msg.Missing)
}

func TestCompose_AdHocBody(t *testing.T) {
	msg, err := newTestComposer(asha()).Compose(context.Background(), ComposeRequest{CustomerID: 7, Body: "Balance {{balance_due}}", OrderID: 42})
	require.NoError(t, err)
	assert.Equal(t, "Balance 300", msg.Text)
	assert.Empty(t, msg.TemplateName)
}

func TestCompose_RequiresCustomerBeforeAnyRead(t *testing.T) {
	customers := asha()
	_, err := newTestComposer(customers).Compose(context.Background(), ComposeRequest{TemplateID: 1})
	assert.True(t, core.IsValidation(err))
	assert.Zero(t, customers.calls)

	_, err = newTestComposer(customers).Compose(context.Background(), ComposeRequest{CustomerID: 7})
	assert.True(t, core.IsValidation(err))
}

func TestCompose_UnknownTemplate(t *testing.T) {
	_, err := newTestComposer(asha()).Compose(context.Background(), ComposeRequest{CustomerID: 7, TemplateID: 99})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
