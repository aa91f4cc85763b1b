package ai

import (
	"context"
	"fmt"
	"strings"

	"printshop/internal/core"
)

// ShopData is the set of services the shop tools read from. Search may be nil, in
// which case web_search reports that it is not configured.
type ShopData struct {
	Customers core.CustomerService
	Orders    core.OrderService
	Payments  core.PaymentService
	Catalog   core.CatalogService
	Templates core.TemplateService
	Reports   core.ReportingService
	Search    *SearchClient
}

// SystemPrompt is the assistant's standing instruction.
const SystemPrompt = `You are the assistant inside a print shop's management console.
Staff ask you about customers, orders, payments, products and message templates.
Use the available tools to look up facts before answering; never invent order numbers, amounts or phone numbers.
Amounts are in Indian rupees. Dates are DD/MM/YYYY.
If a tool reports an error, tell the user plainly what could not be retrieved.
Keep answers short and suitable for a busy shop counter.`

type searchCustomersParams struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Part of the customer's name or phone number"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum results, default 10"`
}

type customerIDParams struct {
	CustomerID int `json:"customer_id" jsonschema:"required,minimum=1"`
}

type orderIDParams struct {
	OrderID int `json:"order_id" jsonschema:"required,minimum=1"`
}

type ordersByStatusParams struct {
	Status string `json:"status" jsonschema:"required,enum=Pending,enum=Design,enum=Printing,enum=Delivered"`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum results, default 20"`
}

type limitParams struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum results, default 20"`
}

type noParams struct{}

type searchTextParams struct {
	Search string `json:"search,omitempty" jsonschema_description:"Optional name or category filter"`
}

type templateParams struct {
	Category string `json:"category,omitempty" jsonschema_description:"Optional category filter"`
}

type webSearchParams struct {
	Query string `json:"query" jsonschema:"required"`
}

// NewShopTools builds the registry of every tool the assistant may call.
func NewShopTools(d ShopData) *ToolRegistry {
	r := NewToolRegistry()

	Register(r, "search_customers", "Find customers by partial name or phone number.",
		func(ctx context.Context, p searchCustomersParams) (any, error) {
			if strings.TrimSpace(p.Query) == "" {
				return nil, fmt.Errorf("query is required")
			}
			page, err := d.Customers.ListCustomers(ctx, core.ListParams{Search: p.Query, PageSize: orDefault(p.Limit, 10)})
			if err != nil {
				return nil, err
			}
			return page, nil
		})

	Register(r, "get_customer_details", "Get a customer's contact details, their recent orders and their outstanding total.",
		func(ctx context.Context, p customerIDParams) (any, error) {
			c, err := d.Customers.GetCustomer(ctx, p.CustomerID)
			if err != nil {
				return nil, err
			}
			st, err := d.Reports.CustomerStatement(ctx, p.CustomerID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"customer": c, "statement": st}, nil
		})

	Register(r, "get_order_details", "Get one order with its line details, status history and payments.",
		func(ctx context.Context, p orderIDParams) (any, error) {
			o, err := d.Orders.GetOrder(ctx, p.OrderID)
			if err != nil {
				return nil, err
			}
			history, err := d.Orders.StatusHistory(ctx, p.OrderID)
			if err != nil {
				return nil, err
			}
			payments, err := d.Payments.ListPayments(ctx, p.OrderID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"order": o, "status_history": history, "payments": payments}, nil
		})

	Register(r, "list_orders_by_status", "List orders in one production stage, newest first.",
		func(ctx context.Context, p ordersByStatusParams) (any, error) {
			if !core.OrderStatus(p.Status).Valid() {
				return nil, fmt.Errorf("unknown status %q", p.Status)
			}
			return d.Orders.ListOrders(ctx, core.ListParams{Status: p.Status, PageSize: orDefault(p.Limit, 20)})
		})

	Register(r, "get_payment_history", "List the payments recorded against an order, oldest first.",
		func(ctx context.Context, p orderIDParams) (any, error) {
			return d.Payments.ListPayments(ctx, p.OrderID)
		})

	Register(r, "get_outstanding_balances", "List orders that still have money due, largest balance first.",
		func(ctx context.Context, p limitParams) (any, error) {
			return d.Reports.OutstandingBalances(ctx, p.Limit)
		})

	Register(r, "get_sales_summary", "Get shop-wide totals: order counts by stage, amounts billed, collected and outstanding.",
		func(ctx context.Context, _ noParams) (any, error) {
			return d.Reports.SalesSummary(ctx)
		})

	Register(r, "list_products", "List active products and their unit prices.",
		func(ctx context.Context, p searchTextParams) (any, error) {
			return d.Catalog.ListProducts(ctx, p.Search)
		})

	Register(r, "list_message_templates", "List saved WhatsApp message templates.",
		func(ctx context.Context, p templateParams) (any, error) {
			return d.Templates.ListTemplates(ctx, p.Category)
		})

	Register(r, "web_search", "Search the public web for information not held in the shop's records.",
		func(ctx context.Context, p webSearchParams) (any, error) {
			if d.Search == nil {
				return "Web search is not configured for this shop.", nil
			}
			out, err := d.Search.Search(ctx, p.Query, 5)
			if err != nil {
				return fmt.Sprintf("Web search failed: %v", err), nil
			}
			return out, nil
		})

	return r
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
