package app

import (
	"github.com/shopspring/decimal"
)

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Phone   string   `json:"phone" validate:"omitempty,max=32"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Address string   `json:"address" validate:"max=500"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=40"`
}

// ProductRequest adds a catalog entry.
type ProductRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Category  string          `json:"category" validate:"max=100"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit" validate:"max=40"`
}

// PaymentRequest is money received. Date is YYYY-MM-DD; empty means today in the
// shop's time zone.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required,max=40"`
	Date   string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateOrderRequest is the input for creating a new order, optionally with the
// advance the customer paid at the counter.
type CreateOrderRequest struct {
	CustomerID     int             `json:"customer_id" validate:"required,gt=0"`
	OrderType      string          `json:"order_type" validate:"required,max=120"`
	Quantity       int             `json:"quantity" validate:"required,gt=0"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DeliveryDate   string          `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string          `json:"notes" validate:"max=2000"`
	InitialPayment *PaymentRequest `json:"initial_payment" validate:"omitempty"`
	StaffID        int             `json:"-"`
}

// RecordPaymentRequest records a payment against an existing order.
type RecordPaymentRequest struct {
	OrderID int `json:"-" validate:"required,gt=0"`
	PaymentRequest
	StaffID int `json:"-"`
}

// UpdateStatusRequest moves an order to another production stage.
type UpdateStatusRequest struct {
	OrderID int    `json:"-" validate:"required,gt=0"`
	Status  string `json:"status" validate:"required,oneof=Pending Design Printing Delivered"`
	Note    string `json:"note" validate:"max=500"`
	StaffID int    `json:"-"`
}

// TemplateRequest authors a message template.
type TemplateRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Category string `json:"category" validate:"max=60"`
	Body     string `json:"body" validate:"required,max=4096"`
}

// ComposeMessageRequest selects what to compose. Either TemplateID or Body is needed.
type ComposeMessageRequest struct {
	CustomerID int    `json:"customer_id" validate:"required,gt=0"`
	OrderID    int    `json:"order_id" validate:"gte=0"`
	TemplateID int    `json:"template_id" validate:"gte=0"`
	Body       string `json:"body" validate:"max=4096"`
}

// LogMessageRequest records a message the operator sent through WhatsApp.
type LogMessageRequest struct {
	CustomerID   int    `json:"customer_id" validate:"required,gt=0"`
	Phone        string `json:"phone" validate:"required,max=32"`
	Message      string `json:"message" validate:"required,max=4096"`
	TemplateName string `json:"template_name" validate:"max=120"`
	StaffID      int    `json:"-"`
}

// ChatTurn is one entry of the assistant conversation.
type ChatTurn struct {
	Role string `json:"role" validate:"required,oneof=user model assistant"`
	Text string `json:"text" validate:"max=8000"`
}

// ChatRequest is a whole conversation; the last turn must be the user's question.
type ChatRequest struct {
	History []ChatTurn `json:"history" validate:"required,min=1,max=100,dive"`
	StaffID int        `json:"-"`
}
