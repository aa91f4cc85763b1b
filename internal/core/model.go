package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the production stage of a print order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusDesign    OrderStatus = "Design"
	StatusPrinting  OrderStatus = "Printing"
	StatusDelivered OrderStatus = "Delivered"
)

// Valid reports whether s is one of the known production stages.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDesign, StatusPrinting, StatusDelivered:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
)

// Customer is referenced by orders, payments and message logs; it never owns them.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is an entry in the print catalog.
type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Order is a print job. AmountPaid and BalanceDue are maintained by PaymentService
// inside the payment transaction:
//
//	BalanceDue = TotalAmount - sum(payments.AmountPaid)
type Order struct {
	ID           int             `json:"id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"` // joined from customers
	OrderType    string          `json:"order_type"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	Status       OrderStatus     `json:"status"`
	Notes        string          `json:"notes"`
	CreatedBy    *int            `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderStatusEntry is one append-only row of an order's status history.
type OrderStatusEntry struct {
	ID        int         `json:"id"`
	OrderID   int         `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note"`
	ChangedBy *int        `json:"changed_by,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderSummary is the projection returned by the get_order_summary SQL function.
type OrderSummary struct {
	OrderID       int             `json:"order_id"`
	CustomerID    int             `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	DeliveryDate  *time.Time      `json:"delivery_date,omitempty"`
	Status        OrderStatus     `json:"status"`
}

// OrderDetail holds the line-level fields of an order.
type OrderDetail struct {
	OrderID   int    `json:"order_id"`
	Quantity  int    `json:"quantity"`
	OrderType string `json:"order_type"`
}

// Payment is append-only; it is never updated after creation.
type Payment struct {
	ID            int             `json:"id"`
	OrderID       int             `json:"order_id"`
	CustomerID    int             `json:"customer_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Status        PaymentStatus   `json:"status"`
	RecordedBy    *int            `json:"recorded_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MessageTemplate is a message body with {{placeholder}} tokens.
type MessageTemplate struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageLog records a composed message after the operator sent it. Write-once.
type MessageLog struct {
	ID           int       `json:"id"`
	CustomerID   int       `json:"customer_id"`
	Phone        string    `json:"phone"`
	Message      string    `json:"message"`
	TemplateName string    `json:"template_name"`
	SentBy       *int      `json:"sent_by,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// SalesSummary is the dashboard projection returned by get_sales_summary.
type SalesSummary struct {
	TotalOrders      int64           `json:"total_orders"`
	PendingOrders    int64           `json:"pending_orders"`
	InProgressOrders int64           `json:"in_progress_orders"`
	DeliveredOrders  int64           `json:"delivered_orders"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	CustomerCount    int64           `json:"customer_count"`
}

// OutstandingBalance is one order with money still owed.
type OutstandingBalance struct {
	OrderID       int             `json:"order_id"`
	CustomerID    int             `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	OrderType     string          `json:"order_type"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	DeliveryDate  *time.Time      `json:"delivery_date,omitempty"`
	Status        OrderStatus     `json:"status"`
}
