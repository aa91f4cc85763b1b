package app

import "printshop/internal/core"

// UserSession is returned by Authenticate.
type UserSession struct {
	StaffID int    `json:"staff_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// OrderResult is returned by order lifecycle operations. Payment is set only when
// CreateOrder recorded an initial payment.
type OrderResult struct {
	Order   *core.Order   `json:"order"`
	Payment *core.Payment `json:"payment,omitempty"`
}

// OrderDetailResult is an order with its history and payments.
type OrderDetailResult struct {
	Order         *core.Order             `json:"order"`
	StatusHistory []core.OrderStatusEntry `json:"status_history"`
	Payments      []core.Payment          `json:"payments"`
}

// PaymentResult is returned by RecordPayment; Order carries the recomputed balance.
type PaymentResult struct {
	Payment *core.Payment `json:"payment"`
	Order   *core.Order   `json:"order"`
}

// ChatResult is returned by Chat.
type ChatResult struct {
	Response   string `json:"response"`
	Iterations int    `json:"iterations"`
	Exhausted  bool   `json:"exhausted"`
	ToolCalls  int    `json:"tool_calls"`
}
