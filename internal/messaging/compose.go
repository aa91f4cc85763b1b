package messaging

import (
	"context"
	"maps"
	"strings"
	"time"

	"printshop/internal/core"
)

// CustomerReader is satisfied by core.CustomerService.
type CustomerReader interface {
	GetCustomer(ctx context.Context, id int) (*core.Customer, error)
}

// TemplateReader is satisfied by core.TemplateService.
type TemplateReader interface {
	GetTemplate(ctx context.Context, id int) (*core.MessageTemplate, error)
}

// ComposeRequest selects a customer, an optional order, and either a stored template
// or an ad-hoc body. TemplateID wins when both are set.
type ComposeRequest struct {
	CustomerID int
	OrderID    int
	TemplateID int
	Body       string
}

// ComposedMessage is a rendered message plus the link that opens it in WhatsApp.
type ComposedMessage struct {
	CustomerID   int      `json:"customer_id"`
	OrderID      int      `json:"order_id,omitempty"`
	TemplateName string   `json:"template_name"`
	Text         string   `json:"text"`
	Phone        string   `json:"phone"`
	WhatsAppURL  string   `json:"whatsapp_url"`
	Missing      []string `json:"missing,omitempty"`
}

// Composer fills templates with customer and order data.
type Composer struct {
	customers CustomerReader
	templates TemplateReader
	agg       *Aggregator
	format    *Formatter
	loc       *time.Location
	now       func() time.Time
}

func NewComposer(customers CustomerReader, templates TemplateReader, agg *Aggregator, format *Formatter, loc *time.Location) *Composer {
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{
		customers: customers,
		templates: templates,
		agg:       agg,
		format:    format,
		loc:       loc,
		now:       time.Now,
	}
}

// Compose validates the selection before touching the database, then renders.
// Order variables override customer variables of the same name.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) (*ComposedMessage, error) {
	if req.CustomerID <= 0 {
		return nil, core.Invalid("customer_id", "a customer must be selected")
	}
	if req.TemplateID <= 0 && strings.TrimSpace(req.Body) == "" {
		return nil, core.Invalid("template_id", "choose a template or write a message")
	}

	body, name := req.Body, ""
	if req.TemplateID > 0 {
		t, err := c.templates.GetTemplate(ctx, req.TemplateID)
		if err != nil {
			return nil, err
		}
		body, name = t.Body, t.Name
	}

	customer, err := c.customers.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	vars := CustomerVars(customer, c.format, c.now().In(c.loc))
	if req.OrderID > 0 {
		oc, err := c.agg.Aggregate(ctx, req.CustomerID, req.OrderID)
		if err != nil {
			return nil, err
		}
		maps.Copy(vars, oc.Vars())
	}

	res := Render(body, vars)
	link, err := WhatsAppURL(customer.Phone, res.Text)
	if err != nil {
		return nil, err
	}

	return &ComposedMessage{
		CustomerID:   req.CustomerID,
		OrderID:      req.OrderID,
		TemplateName: name,
		Text:         res.Text,
		Phone:        customer.Phone,
		WhatsAppURL:  link,
		Missing:      res.Missing,
	}, nil
}
