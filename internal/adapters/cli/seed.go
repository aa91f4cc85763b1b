package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"printshop/internal/app"
	"printshop/internal/bootstrap"
	"printshop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// defaultTemplates are the message templates a fresh shop starts with.
var defaultTemplates = []app.TemplateRequest{
	{
		Name:     "Order confirmation",
		Category: "orders",
		Body: "Hello {{customer_name}}, thank you for your order #{{order_id}} " +
			"({{quantity}} × {{order_type}}). Total {{total_amount}}, paid {{amount_paid}}, " +
			"balance {{balance_due}}. Expected delivery: {{delivery_date}}.",
	},
	{
		Name:     "Ready for pickup",
		Category: "orders",
		Body: "Hello {{customer_name}}, your order #{{order_id}} ({{order_type}}) is ready. " +
			"Balance due: {{balance_due}}. Invoice: {{invoice_link}}",
	},
	{
		Name:     "Payment reminder",
		Category: "payments",
		Body: "Dear {{customer_name}}, a balance of {{balance_due}} is pending on order #{{order_id}}.\n" +
			"Payments so far:\n{{payment_history}}\nInvoice: {{invoice_link}}",
	},
	{
		Name:     "Payment received",
		Category: "payments",
		Body: "Thank you {{customer_name}}! We have received your payment for order #{{order_id}}. " +
			"Total paid {{amount_paid}}, balance {{balance_due}}.",
	},
	{
		Name:     "Festival greetings",
		Category: "general",
		Body:     "Warm wishes to {{customer_name}} and family from all of us. ({{today}})",
	},
}

var defaultProducts = []app.ProductRequest{
	{Name: "Visiting cards (350 gsm)", Category: "Cards", UnitPrice: decimal.RequireFromString("1.20"), Unit: "piece"},
	{Name: "Flyers A5", Category: "Flyers", UnitPrice: decimal.RequireFromString("2.50"), Unit: "piece"},
	{Name: "Flex banner", Category: "Large format", UnitPrice: decimal.NewFromInt(18), Unit: "sq ft"},
	{Name: "Wedding invitation", Category: "Invitations", UnitPrice: decimal.NewFromInt(35), Unit: "piece"},
	{Name: "Letterhead A4", Category: "Stationery", UnitPrice: decimal.RequireFromString("3.75"), Unit: "sheet"},
}

var demoCustomers = []app.CustomerRequest{
	{Name: "Asha Traders", Phone: "+91 98000 00001", Address: "Broadway, Kochi", Tags: []string{"wholesale"}},
	{Name: "Bharat Prints", Phone: "+91 98000 00002", Email: "accounts@bharatprints.test", Address: "MG Road, Kochi"},
}

func newSeedCommand() *cobra.Command {
	var (
		adminEmail string
		adminName  string
		demo       bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account, default templates and catalog (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv("SEED_ADMIN_PASSWORD")
			if password == "" {
				return errors.New("SEED_ADMIN_PASSWORD must be set")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
				return seed(ctx, cmd.OutOrStdout(), rt.Users, rt.Service, seedOptions{
					AdminName:     adminName,
					AdminEmail:    adminEmail,
					AdminPassword: password,
					Demo:          demo,
				})
			})
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@printshop.local", "email of the admin account")
	cmd.Flags().StringVar(&adminName, "admin-name", "Shop Admin", "name of the admin account")
	cmd.Flags().BoolVar(&demo, "demo", false, "also create demo customers")
	return cmd
}

type seedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	Demo          bool
}

// staffCreator is satisfied by core.UserService.
type staffCreator interface {
	CreateStaff(ctx context.Context, name, email, role, password string) (*core.Staff, error)
}

func seed(ctx context.Context, out io.Writer, users staffCreator, svc app.ApplicationService, opts seedOptions) error {
	admin, err := users.CreateStaff(ctx, opts.AdminName, opts.AdminEmail, core.RoleAdmin, opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Fprintf(out, "admin      %s (id %d)\n", admin.Email, admin.ID)

	existing, err := svc.ListTemplates(ctx, "")
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[strings.ToLower(t.Name)] = true
	}
	for _, t := range defaultTemplates {
		if have[strings.ToLower(t.Name)] {
			continue
		}
		created, err := svc.CreateTemplate(ctx, t)
		if err != nil {
			return fmt.Errorf("failed to create template %q: %w", t.Name, err)
		}
		fmt.Fprintf(out, "template   %s\n", created.Slug)
	}

	for _, p := range defaultProducts {
		found, err := svc.ListProducts(ctx, p.Name)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			continue
		}
		if _, err := svc.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to create product %q: %w", p.Name, err)
		}
		fmt.Fprintf(out, "product    %s\n", p.Name)
	}

	if !opts.Demo {
		return nil
	}
	for _, c := range demoCustomers {
		page, err := svc.ListCustomers(ctx, core.ListParams{Search: c.Name, PageSize: 1})
		if err != nil {
			return err
		}
		if page.Total > 0 {
			continue
		}
		if _, err := svc.CreateCustomer(ctx, c); err != nil {
			return fmt.Errorf("failed to create customer %q: %w", c.Name, err)
		}
		fmt.Fprintf(out, "customer   %s\n", c.Name)
	}
	return nil
}
