package app

import (
	"context"

	"printshop/internal/chatlog"
	"printshop/internal/core"
	"printshop/internal/messaging"
	"printshop/internal/notify"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// Authenticate verifies staff credentials and returns a session on success.
	Authenticate(ctx context.Context, email, password string) (*UserSession, error)
	GetStaff(ctx context.Context, staffID int) (*core.Staff, error)
	ListStaff(ctx context.Context) ([]core.Staff, error)

	ListCustomers(ctx context.Context, p core.ListParams) (*core.Page[core.Customer], error)
	GetCustomer(ctx context.Context, id int) (*core.Customer, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error)
	CustomerStatement(ctx context.Context, customerID int) (*core.CustomerStatement, error)

	ListProducts(ctx context.Context, search string) ([]core.Product, error)
	CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error)

	ListOrders(ctx context.Context, p core.ListParams) (*core.Page[core.Order], error)
	GetOrder(ctx context.Context, orderID int) (*OrderDetailResult, error)
	// CreateOrder inserts the order and its optional initial payment in one transaction.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)
	UpdateOrderStatus(ctx context.Context, req UpdateStatusRequest) (*core.Order, error)
	OrderStatusHistory(ctx context.Context, orderID int) ([]core.OrderStatusEntry, error)
	// InvoiceQR returns a PNG QR code pointing at the order's invoice page.
	InvoiceQR(ctx context.Context, orderID, size int) ([]byte, error)

	ListPayments(ctx context.Context, orderID int) ([]core.Payment, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error)

	ListTemplates(ctx context.Context, category string) ([]core.MessageTemplate, error)
	GetTemplate(ctx context.Context, id int) (*core.MessageTemplate, error)
	CreateTemplate(ctx context.Context, req TemplateRequest) (*core.MessageTemplate, error)

	// ComposeMessage renders a template for a customer (and optionally an order) and
	// returns the text with its WhatsApp link. Nothing is sent.
	ComposeMessage(ctx context.Context, req ComposeMessageRequest) (*messaging.ComposedMessage, error)
	// LogMessage records that the operator sent a composed message.
	LogMessage(ctx context.Context, req LogMessageRequest) (*core.MessageLog, error)
	ListMessageLogs(ctx context.Context, customerID int, p core.ListParams) (*core.Page[core.MessageLog], error)

	SalesSummary(ctx context.Context) (*core.SalesSummary, error)
	OutstandingBalances(ctx context.Context, limit int) ([]core.OutstandingBalance, error)

	// Chat runs the assistant over the conversation. Tool failures are narrated by the
	// model; only request and model errors are returned.
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	// ChatHistory returns the caller's saved transcripts, newest first.
	ChatHistory(ctx context.Context, staffID, limit int) ([]chatlog.Transcript, error)

	RecentNotifications(ctx context.Context, limit int) ([]notify.Notification, error)
	SubscribeNotifications(ctx context.Context) (<-chan notify.Notification, func(), error)
}
