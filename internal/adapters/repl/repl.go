package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"printshop/internal/app"
	"printshop/internal/core"
	"printshop/internal/messaging"

	"github.com/shopspring/decimal"
)

// maxHistory caps the assistant conversation kept between questions.
const maxHistory = 20

var errExit = errors.New("exit")

// Session is one interactive console session for a staff member.
type Session struct {
	svc     app.ApplicationService
	format  *messaging.Formatter
	staffID int
	out     io.Writer
	history []app.ChatTurn
}

func NewSession(svc app.ApplicationService, format *messaging.Formatter, staffID int, out io.Writer) *Session {
	return &Session{svc: svc, format: format, staffID: staffID, out: out}
}

// Run reads lines from in until EOF or /exit. Slash commands are dispatched
// deterministically; anything else goes to the assistant.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Print Shop Console")
	fmt.Fprintln(s.out, "Ask a question, or use /help for commands.")
	fmt.Fprintln(s.out, strings.Repeat("-", rule))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		var err error
		if strings.HasPrefix(input, "/") {
			err = s.dispatch(ctx, input)
		} else {
			err = s.ask(ctx, input)
		}
		if errors.Is(err, errExit) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Session) ask(ctx context.Context, question string) error {
	turns := append(s.history, app.ChatTurn{Role: "user", Text: question})
	fmt.Fprintln(s.out, "[AI] Thinking...")
	res, err := s.svc.Chat(ctx, app.ChatRequest{History: turns, StaffID: s.staffID})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\n%s\n", res.Response)
	if res.Exhausted {
		fmt.Fprintln(s.out, "(the assistant stopped before finishing its lookups)")
	}

	s.history = append(turns, app.ChatTurn{Role: "model", Text: res.Response})
	if n := len(s.history); n > maxHistory {
		s.history = s.history[n-maxHistory:]
	}
	return nil
}

func (s *Session) dispatch(ctx context.Context, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(tokens[0]), tokens[1:]

	switch cmd {
	case "orders":
		p := core.ListParams{PageSize: 20, SortBy: "created_at", SortDesc: true}
		if len(args) > 0 {
			p.Status = normalizeStatus(args[0])
		}
		page, err := s.svc.ListOrders(ctx, p)
		if err != nil {
			return err
		}
		printOrders(s.out, s.format, page)

	case "order":
		id, err := intArg(args, 0, "/order <id>")
		if err != nil {
			return err
		}
		d, err := s.svc.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		printOrderDetail(s.out, s.format, d.Order, d.StatusHistory, d.Payments)

	case "customers":
		page, err := s.svc.ListCustomers(ctx, core.ListParams{PageSize: 50, SortBy: "name", Search: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		printCustomers(s.out, page)

	case "balances", "bal":
		rows, err := s.svc.OutstandingBalances(ctx, 50)
		if err != nil {
			return err
		}
		printBalances(s.out, s.format, rows)

	case "summary":
		sum, err := s.svc.SalesSummary(ctx)
		if err != nil {
			return err
		}
		printSummary(s.out, s.format, sum)

	case "templates":
		ts, err := s.svc.ListTemplates(ctx, "")
		if err != nil {
			return err
		}
		printTemplates(s.out, ts)

	case "compose":
		customerID, err := intArg(args, 0, "/compose <customer> <template> [order]")
		if err != nil {
			return err
		}
		templateID, err := intArg(args, 1, "/compose <customer> <template> [order]")
		if err != nil {
			return err
		}
		orderID := 0
		if len(args) > 2 {
			if orderID, err = intArg(args, 2, "/compose <customer> <template> [order]"); err != nil {
				return err
			}
		}
		msg, err := s.svc.ComposeMessage(ctx, app.ComposeMessageRequest{CustomerID: customerID, TemplateID: templateID, OrderID: orderID})
		if err != nil {
			return err
		}
		PrintComposed(s.out, msg)

	case "pay":
		if len(args) < 3 {
			return usage("/pay <order> <amount> <method>")
		}
		orderID, err := intArg(args, 0, "/pay <order> <amount> <method>")
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		res, err := s.svc.RecordPayment(ctx, app.RecordPaymentRequest{
			OrderID:        orderID,
			PaymentRequest: app.PaymentRequest{Amount: amount, Method: strings.Join(args[2:], " ")},
			StaffID:        s.staffID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Payment recorded. Balance due on order #%d: %s\n", res.Order.ID, s.format.Amount(res.Order.BalanceDue))

	case "status":
		if len(args) < 2 {
			return usage("/status <order> <status>")
		}
		orderID, err := intArg(args, 0, "/status <order> <status>")
		if err != nil {
			return err
		}
		o, err := s.svc.UpdateOrderStatus(ctx, app.UpdateStatusRequest{
			OrderID: orderID,
			Status:  normalizeStatus(args[1]),
			Note:    strings.Join(args[2:], " "),
			StaffID: s.staffID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Order #%d is now %s.\n", o.ID, o.Status)

	case "clear":
		s.history = nil
		fmt.Fprintln(s.out, "Conversation cleared.")

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

func usage(u string) error { return fmt.Errorf("usage: %s", u) }

func intArg(args []string, i int, u string) (int, error) {
	if len(args) <= i {
		return 0, usage(u)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[i], "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", args[i])
	}
	return n, nil
}

// normalizeStatus maps "printing" to "Printing" so typed statuses match the stored values.
func normalizeStatus(s string) string {
	for _, st := range []core.OrderStatus{core.StatusPending, core.StatusDesign, core.StatusPrinting, core.StatusDelivered} {
		if strings.EqualFold(s, string(st)) {
			return string(st)
		}
	}
	return s
}
