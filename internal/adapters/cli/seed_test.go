package cli

import (
	"bytes"
	"context"
	"testing"

	"printshop/internal/app"
	"printshop/internal/core"
	"printshop/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct{ created []string }

func (f *fakeUsers) CreateStaff(_ context.Context, name, email, role, _ string) (*core.Staff, error) {
	f.created = append(f.created, email+":"+role)
	return &core.Staff{ID: 1, Name: name, Email: email, Role: role}, nil
}

type fakeService struct {
	app.ApplicationService

	templates []core.MessageTemplate
	products  []string
	customers []string
}

func (f *fakeService) ListTemplates(context.Context, string) ([]core.MessageTemplate, error) {
	return f.templates, nil
}

func (f *fakeService) CreateTemplate(_ context.Context, req app.TemplateRequest) (*core.MessageTemplate, error) {
	t := core.MessageTemplate{ID: len(f.templates) + 1, Name: req.Name, Slug: req.Name, Body: req.Body}
	f.templates = append(f.templates, t)
	return &t, nil
}

func (f *fakeService) ListProducts(_ context.Context, search string) ([]core.Product, error) {
	for _, p := range f.products {
		if p == search {
			return []core.Product{{Name: p}}, nil
		}
	}
	return []core.Product{}, nil
}

func (f *fakeService) CreateProduct(_ context.Context, req app.ProductRequest) (*core.Product, error) {
	f.products = append(f.products, req.Name)
	return &core.Product{Name: req.Name}, nil
}

func (f *fakeService) ListCustomers(_ context.Context, p core.ListParams) (*core.Page[core.Customer], error) {
	for _, c := range f.customers {
		if c == p.Search {
			return &core.Page[core.Customer]{Total: 1}, nil
		}
	}
	return &core.Page[core.Customer]{}, nil
}

func (f *fakeService) CreateCustomer(_ context.Context, req app.CustomerRequest) (*core.Customer, error) {
	f.customers = append(f.customers, req.Name)
	return &core.Customer{Name: req.Name}, nil
}

func TestSeed_IsIdempotent(t *testing.T) {
	users, svc := &fakeUsers{}, &fakeService{}
	opts := seedOptions{AdminName: "Owner", AdminEmail: "owner@shop.test", AdminPassword: "s3cret-pass", Demo: true}

	require.NoError(t, seed(context.Background(), &bytes.Buffer{}, users, svc, opts))
	assert.Len(t, svc.templates, len(defaultTemplates))
	assert.Len(t, svc.products, len(defaultProducts))
	assert.Len(t, svc.customers, len(demoCustomers))

	var out bytes.Buffer
	require.NoError(t, seed(context.Background(), &out, users, svc, opts))
	assert.Len(t, svc.templates, len(defaultTemplates))
	assert.Len(t, svc.products, len(defaultProducts))
	assert.Len(t, svc.customers, len(demoCustomers))
	assert.NotContains(t, out.String(), "template ")
	assert.Equal(t, []string{"owner@shop.test:admin", "owner@shop.test:admin"}, users.created)
}

func TestDefaultTemplatesUseKnownPlaceholders(t *testing.T) {
	known := map[string]bool{}
	for _, k := range []string{
		"customer_name", "customer_phone", "customer_email", "customer_address", "today",
		"order_id", "order_type", "quantity", "total_amount", "amount_paid", "balance_due",
		"delivery_date", "status", "payment_history", "invoice_link",
	} {
		known[k] = true
	}
	for _, tpl := range defaultTemplates {
		for _, p := range messaging.Placeholders(tpl.Body) {
			assert.True(t, known[p], "%s uses unknown placeholder %q", tpl.Name, p)
		}
	}
}
