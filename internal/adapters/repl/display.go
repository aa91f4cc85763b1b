package repl

import (
	"fmt"
	"io"
	"strings"

	"printshop/internal/core"
	"printshop/internal/messaging"
)

const rule = 78

func heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func date(f *messaging.Formatter, o *core.Order) string {
	if o.DeliveryDate == nil {
		return "-"
	}
	return f.Date(*o.DeliveryDate)
}

func printOrders(w io.Writer, f *messaging.Formatter, page *core.Page[core.Order]) {
	heading(w, fmt.Sprintf("ORDERS (%d of %d)", len(page.Items), page.Total))
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "  No orders found.")
		fmt.Fprintln(w, strings.Repeat("=", rule))
		return
	}
	fmt.Fprintf(w, "  %-6s %-22s %-18s %12s %12s  %-10s %s\n", "ID", "CUSTOMER", "TYPE", "TOTAL", "DUE", "STATUS", "DELIVERY")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for i := range page.Items {
		o := &page.Items[i]
		fmt.Fprintf(w, "  %-6d %-22s %-18s %12s %12s  %-10s %s\n",
			o.ID, clip(o.CustomerName, 22), clip(o.OrderType, 18),
			f.Amount(o.TotalAmount), f.Amount(o.BalanceDue), o.Status, date(f, o))
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printOrderDetail(w io.Writer, f *messaging.Formatter, o *core.Order, history []core.OrderStatusEntry, payments []core.Payment) {
	heading(w, fmt.Sprintf("ORDER #%d: %s", o.ID, o.CustomerName))
	fmt.Fprintf(w, "  Type     : %s × %s\n", f.Integer(int64(o.Quantity)), o.OrderType)
	fmt.Fprintf(w, "  Total    : %s\n", f.Amount(o.TotalAmount))
	fmt.Fprintf(w, "  Paid     : %s\n", f.Amount(o.AmountPaid))
	fmt.Fprintf(w, "  Due      : %s\n", f.Amount(o.BalanceDue))
	fmt.Fprintf(w, "  Status   : %s\n", o.Status)
	fmt.Fprintf(w, "  Delivery : %s\n", date(f, o))
	if len(payments) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", rule))
		for _, p := range payments {
			fmt.Fprintf(w, "  %s  %12s  %s\n", f.Date(p.PaymentDate), f.Amount(p.AmountPaid), p.PaymentMethod)
		}
	}
	if len(history) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", rule))
		for _, h := range history {
			fmt.Fprintf(w, "  %s  %-10s %s\n", f.Date(h.ChangedAt), h.Status, h.Note)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printBalances(w io.Writer, f *messaging.Formatter, rows []core.OutstandingBalance) {
	heading(w, "OUTSTANDING BALANCES")
	if len(rows) == 0 {
		fmt.Fprintln(w, "  Nothing outstanding.")
		fmt.Fprintln(w, strings.Repeat("=", rule))
		return
	}
	fmt.Fprintf(w, "  %-6s %-24s %-16s %-20s %12s\n", "ORDER", "CUSTOMER", "PHONE", "TYPE", "DUE")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, b := range rows {
		fmt.Fprintf(w, "  %-6d %-24s %-16s %-20s %12s\n",
			b.OrderID, clip(b.CustomerName, 24), b.CustomerPhone, clip(b.OrderType, 20), f.Amount(b.BalanceDue))
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printSummary(w io.Writer, f *messaging.Formatter, s *core.SalesSummary) {
	heading(w, "SALES SUMMARY")
	fmt.Fprintf(w, "  Orders      : %d (pending %d, in progress %d, delivered %d)\n",
		s.TotalOrders, s.PendingOrders, s.InProgressOrders, s.DeliveredOrders)
	fmt.Fprintf(w, "  Billed      : %s\n", f.Amount(s.TotalBilled))
	fmt.Fprintf(w, "  Collected   : %s\n", f.Amount(s.TotalCollected))
	fmt.Fprintf(w, "  Outstanding : %s\n", f.Amount(s.TotalOutstanding))
	fmt.Fprintf(w, "  Customers   : %d\n", s.CustomerCount)
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printCustomers(w io.Writer, page *core.Page[core.Customer]) {
	heading(w, fmt.Sprintf("CUSTOMERS (%d of %d)", len(page.Items), page.Total))
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "  No customers found.")
		fmt.Fprintln(w, strings.Repeat("=", rule))
		return
	}
	fmt.Fprintf(w, "  %-6s %-28s %-18s %s\n", "ID", "NAME", "PHONE", "EMAIL")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, c := range page.Items {
		fmt.Fprintf(w, "  %-6d %-28s %-18s %s\n", c.ID, clip(c.Name, 28), c.Phone, c.Email)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printTemplates(w io.Writer, templates []core.MessageTemplate) {
	heading(w, "MESSAGE TEMPLATES")
	for _, t := range templates {
		fmt.Fprintf(w, "  %-4d %-30s [%s]\n", t.ID, clip(t.Name, 30), t.Category)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

// PrintComposed shows a rendered message with its WhatsApp link.
func PrintComposed(w io.Writer, m *messaging.ComposedMessage) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.Text)
	fmt.Fprintln(w, strings.Repeat("-", rule))
	fmt.Fprintf(w, "WhatsApp: %s\n", m.WhatsAppURL)
	if len(m.Missing) > 0 {
		fmt.Fprintf(w, "WARNING: no value for %s\n", strings.Join(m.Missing, ", "))
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
  /orders [status]                 list recent orders, optionally by status
  /order <id>                      show one order with payments and history
  /customers [search]              list customers
  /balances                        outstanding balances, largest first
  /summary                         sales summary
  /templates                       list message templates
  /compose <customer> <template> [order]
                                   render a template and print the WhatsApp link
  /pay <order> <amount> <method>   record a payment
  /status <order> <status>         move an order to Pending, Design, Printing or Delivered
  /clear                           forget the assistant conversation
  /help                            this list
  /exit                            quit

Anything else is sent to the assistant.`)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
