package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"printshop/internal/ai"
	"printshop/internal/chatlog"
	"printshop/internal/core"
	"printshop/internal/messaging"
	"printshop/internal/notify"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// ErrAssistantUnavailable is returned by Chat when no model is configured.
var ErrAssistantUnavailable = errors.New("assistant is not configured")

// Deps are the collaborators of the application service. Dispatcher may be nil when
// no model provider is configured.
type Deps struct {
	Customers core.CustomerService
	Orders    core.OrderService
	Payments  core.PaymentService
	Catalog   core.CatalogService
	Templates core.TemplateService
	Messages  core.MessageLogService
	Users     core.UserService
	Reports   core.ReportingService

	Composer    *messaging.Composer
	Dispatcher  *ai.Dispatcher
	AIProvider  string
	Transcripts chatlog.Store
	Notifier    notify.Publisher

	PublicOrigin string
	Location     *time.Location
	Log          *zap.Logger
}

type appService struct {
	Deps
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(d Deps) ApplicationService {
	if d.Transcripts == nil {
		d.Transcripts = chatlog.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &appService{Deps: d}
}

// publish is best effort: a notification failure never fails the write it reports.
func (s *appService) publish(ctx context.Context, n notify.Notification) {
	if err := s.Notifier.Publish(ctx, n); err != nil {
		s.Log.Warn("notification publish failed", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}

func staffRef(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}

// ── Staff ────────────────────────────────────────────────────────────────────

func (s *appService) Authenticate(ctx context.Context, email, password string) (*UserSession, error) {
	u, err := s.Users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{StaffID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

func (s *appService) GetStaff(ctx context.Context, staffID int) (*core.Staff, error) {
	return s.Users.GetByID(ctx, staffID)
}

func (s *appService) ListStaff(ctx context.Context) ([]core.Staff, error) {
	return s.Users.ListStaff(ctx)
}

// ── Customers & catalog ──────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context, p core.ListParams) (*core.Page[core.Customer], error) {
	return s.Customers.ListCustomers(ctx, p)
}

func (s *appService) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	return s.Customers.GetCustomer(ctx, id)
}

func (req CustomerRequest) input() core.CustomerInput {
	return core.CustomerInput{Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, Tags: req.Tags}
}

func (s *appService) CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.Customers.CreateCustomer(ctx, req.input())
}

func (s *appService) UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.Customers.UpdateCustomer(ctx, id, req.input())
}

func (s *appService) CustomerStatement(ctx context.Context, customerID int) (*core.CustomerStatement, error) {
	return s.Reports.CustomerStatement(ctx, customerID)
}

func (s *appService) ListProducts(ctx context.Context, search string) ([]core.Product, error) {
	return s.Catalog.ListProducts(ctx, search)
}

func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.Catalog.CreateProduct(ctx, req.Name, req.Category, req.UnitPrice, req.Unit)
}

// ── Orders & payments ────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, p core.ListParams) (*core.Page[core.Order], error) {
	return s.Orders.ListOrders(ctx, p)
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderDetailResult, error) {
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	history, err := s.Orders.StatusHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetailResult{Order: o, StatusHistory: history, Payments: payments}, nil
}

func (s *appService) paymentInput(req PaymentRequest, orderID, staffID int) (*core.PaymentInput, error) {
	date, err := parseDate(req.Date, s.Location)
	if err != nil {
		return nil, err
	}
	if date == nil {
		y, m, d := time.Now().In(s.Location).Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		date = &today
	}
	return &core.PaymentInput{
		OrderID:       orderID,
		AmountPaid:    req.Amount,
		PaymentDate:   date,
		PaymentMethod: req.Method,
		RecordedBy:    staffRef(staffID),
	}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	delivery, err := parseDate(req.DeliveryDate, s.Location)
	if err != nil {
		return nil, err
	}

	in := core.CreateOrderInput{
		CustomerID:   req.CustomerID,
		OrderType:    req.OrderType,
		Quantity:     req.Quantity,
		TotalAmount:  req.TotalAmount,
		DeliveryDate: delivery,
		Notes:        req.Notes,
		CreatedBy:    staffRef(req.StaffID),
	}
	if req.InitialPayment != nil && req.InitialPayment.Amount.IsPositive() {
		if in.InitialPayment, err = s.paymentInput(*req.InitialPayment, 0, req.StaffID); err != nil {
			return nil, err
		}
	}

	order, payment, err := s.Orders.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Notification{
		Kind:       notify.KindOrderCreated,
		Title:      fmt.Sprintf("New order #%d", order.ID),
		Body:       fmt.Sprintf("%s: %d × %s", order.CustomerName, order.Quantity, order.OrderType),
		EntityType: "order",
		EntityID:   order.ID,
	})
	if payment != nil {
		s.publishPayment(ctx, payment, order)
	}
	return &OrderResult{Order: order, Payment: payment}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, req UpdateStatusRequest) (*core.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	order, err := s.Orders.UpdateStatus(ctx, req.OrderID, core.OrderStatus(req.Status), req.Note, staffRef(req.StaffID))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notify.Notification{
		Kind:       notify.KindOrderStatus,
		Title:      fmt.Sprintf("Order #%d is now %s", order.ID, order.Status),
		Body:       order.CustomerName + ": " + order.OrderType,
		EntityType: "order",
		EntityID:   order.ID,
	})
	return order, nil
}

func (s *appService) OrderStatusHistory(ctx context.Context, orderID int) ([]core.OrderStatusEntry, error) {
	return s.Orders.StatusHistory(ctx, orderID)
}

func (s *appService) InvoiceQR(ctx context.Context, orderID, size int) ([]byte, error) {
	if _, err := s.Orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if size < 128 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(s.PublicOrigin+"/invoices/"+strconv.Itoa(orderID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice QR: %w", err)
	}
	return png, nil
}

func (s *appService) ListPayments(ctx context.Context, orderID int) ([]core.Payment, error) {
	return s.Payments.ListPayments(ctx, orderID)
}

func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	in, err := s.paymentInput(req.PaymentRequest, req.OrderID, req.StaffID)
	if err != nil {
		return nil, err
	}
	payment, order, err := s.Payments.RecordPayment(ctx, *in)
	if err != nil {
		return nil, err
	}
	s.publishPayment(ctx, payment, order)
	return &PaymentResult{Payment: payment, Order: order}, nil
}

func (s *appService) publishPayment(ctx context.Context, p *core.Payment, o *core.Order) {
	s.publish(ctx, notify.Notification{
		Kind:       notify.KindPaymentRecorded,
		Title:      fmt.Sprintf("Payment on order #%d", o.ID),
		Body:       fmt.Sprintf("%s paid %s by %s; balance %s", o.CustomerName, p.AmountPaid.StringFixed(2), p.PaymentMethod, o.BalanceDue.StringFixed(2)),
		EntityType: "order",
		EntityID:   o.ID,
	})
}

// ── Templates & messages ─────────────────────────────────────────────────────

func (s *appService) ListTemplates(ctx context.Context, category string) ([]core.MessageTemplate, error) {
	return s.Templates.ListTemplates(ctx, category)
}

func (s *appService) GetTemplate(ctx context.Context, id int) (*core.MessageTemplate, error) {
	return s.Templates.GetTemplate(ctx, id)
}

func (s *appService) CreateTemplate(ctx context.Context, req TemplateRequest) (*core.MessageTemplate, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.Templates.CreateTemplate(ctx, req.Name, req.Category, req.Body)
}

func (s *appService) ComposeMessage(ctx context.Context, req ComposeMessageRequest) (*messaging.ComposedMessage, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.Composer.Compose(ctx, messaging.ComposeRequest{
		CustomerID: req.CustomerID,
		OrderID:    req.OrderID,
		TemplateID: req.TemplateID,
		Body:       req.Body,
	})
}

func (s *appService) LogMessage(ctx context.Context, req LogMessageRequest) (*core.MessageLog, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	entry, err := s.Messages.AppendLog(ctx, core.MessageLog{
		CustomerID:   req.CustomerID,
		Phone:        req.Phone,
		Message:      req.Message,
		TemplateName: req.TemplateName,
		SentBy:       staffRef(req.StaffID),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notify.Notification{
		Kind:       notify.KindMessageLogged,
		Title:      "WhatsApp message sent",
		Body:       fmt.Sprintf("To %s (%s)", entry.Phone, orString(entry.TemplateName, "custom message")),
		EntityType: "customer",
		EntityID:   entry.CustomerID,
	})
	return entry, nil
}

func (s *appService) ListMessageLogs(ctx context.Context, customerID int, p core.ListParams) (*core.Page[core.MessageLog], error) {
	return s.Messages.ListLogs(ctx, customerID, p)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) SalesSummary(ctx context.Context) (*core.SalesSummary, error) {
	return s.Reports.SalesSummary(ctx)
}

func (s *appService) OutstandingBalances(ctx context.Context, limit int) ([]core.OutstandingBalance, error) {
	return s.Reports.OutstandingBalances(ctx, limit)
}

// ── Assistant ────────────────────────────────────────────────────────────────

func (s *appService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	last := req.History[len(req.History)-1]
	if last.Role != ai.RoleUser {
		return nil, core.Invalid("history", "the last turn must be from the user")
	}
	if last.Text == "" {
		return nil, core.Invalid("history", "the question is empty")
	}
	if s.Dispatcher == nil {
		return nil, ErrAssistantUnavailable
	}

	turns := make([]ai.Turn, len(req.History))
	for i, t := range req.History {
		role := t.Role
		if role == "assistant" {
			role = ai.RoleModel
		}
		turns[i] = ai.Turn{Role: role, Text: t.Text}
	}

	res, err := s.Dispatcher.Run(ctx, turns)
	if err != nil {
		return nil, err
	}

	s.saveTranscript(ctx, req, res)
	return &ChatResult{
		Response:   res.Text,
		Iterations: res.Iterations,
		Exhausted:  res.Exhausted,
		ToolCalls:  len(res.ToolCalls),
	}, nil
}

func (s *appService) saveTranscript(ctx context.Context, req ChatRequest, res *ai.RunResult) {
	history := make([]chatlog.Message, len(req.History))
	for i, t := range req.History {
		history[i] = chatlog.Message{Role: t.Role, Text: t.Text}
	}
	err := s.Transcripts.Save(context.WithoutCancel(ctx), &chatlog.Transcript{
		StaffID:    req.StaffID,
		Provider:   s.AIProvider,
		History:    history,
		Response:   res.Text,
		ToolCalls:  res.ToolCalls,
		Iterations: res.Iterations,
		Exhausted:  res.Exhausted,
	})
	if err != nil {
		s.Log.Warn("chat transcript not saved", zap.Int("staff_id", req.StaffID), zap.Error(err))
	}
}

func (s *appService) ChatHistory(ctx context.Context, staffID, limit int) ([]chatlog.Transcript, error) {
	list, err := s.Transcripts.Recent(ctx, staffID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return list, nil
}

// ── Notifications ────────────────────────────────────────────────────────────

func (s *appService) RecentNotifications(ctx context.Context, limit int) ([]notify.Notification, error) {
	return s.Notifier.Recent(ctx, limit)
}

func (s *appService) SubscribeNotifications(ctx context.Context) (<-chan notify.Notification, func(), error) {
	return s.Notifier.Subscribe(ctx)
}

func orString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
