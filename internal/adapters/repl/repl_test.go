package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"printshop/internal/app"
	"printshop/internal/core"
	"printshop/internal/messaging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	app.ApplicationService

	chats    []app.ChatRequest
	listed   []core.ListParams
	statuses []app.UpdateStatusRequest
}

func (f *fakeService) Chat(_ context.Context, req app.ChatRequest) (*app.ChatResult, error) {
	f.chats = append(f.chats, req)
	return &app.ChatResult{Response: "Two orders are pending."}, nil
}

func (f *fakeService) ListOrders(_ context.Context, p core.ListParams) (*core.Page[core.Order], error) {
	f.listed = append(f.listed, p)
	return &core.Page[core.Order]{
		Items: []core.Order{{ID: 42, CustomerName: "Asha Traders", OrderType: "Visiting cards",
			TotalAmount: decimal.NewFromInt(1000), BalanceDue: decimal.NewFromInt(300), Status: core.StatusPrinting}},
		Total: 1,
	}, nil
}

func (f *fakeService) UpdateOrderStatus(_ context.Context, req app.UpdateStatusRequest) (*core.Order, error) {
	f.statuses = append(f.statuses, req)
	return &core.Order{ID: req.OrderID, Status: core.OrderStatus(req.Status)}, nil
}

func run(t *testing.T, svc *fakeService, input string) string {
	t.Helper()
	var out bytes.Buffer
	s := NewSession(svc, messaging.NewFormatter("en-IN"), 3, &out)
	require.NoError(t, s.Run(context.Background(), strings.NewReader(input)))
	return out.String()
}

func TestSession_SlashCommandsSkipAssistant(t *testing.T) {
	svc := &fakeService{}
	out := run(t, svc, "/orders printing\n/status 42 delivered handed over\n/exit\n")

	assert.Empty(t, svc.chats)
	require.Len(t, svc.listed, 1)
	assert.Equal(t, "Printing", svc.listed[0].Status)
	assert.Contains(t, out, "Asha Traders")

	require.Len(t, svc.statuses, 1)
	assert.Equal(t, "Delivered", svc.statuses[0].Status)
	assert.Equal(t, "handed over", svc.statuses[0].Note)
	assert.Equal(t, 3, svc.statuses[0].StaffID)
	assert.Contains(t, out, "Goodbye!")
}

func TestSession_KeepsConversation(t *testing.T) {
	svc := &fakeService{}
	out := run(t, svc, "how many orders are pending?\nand which is oldest?\n")

	require.Len(t, svc.chats, 2)
	second := svc.chats[1].History
	require.Len(t, second, 3)
	assert.Equal(t, "user", second[0].Role)
	assert.Equal(t, "model", second[1].Role)
	assert.Equal(t, "and which is oldest?", second[2].Text)
	assert.Contains(t, out, "Two orders are pending.")
}

func TestSession_BadArguments(t *testing.T) {
	out := run(t, &fakeService{}, "/order abc\n/pay 42\n/nope\n")
	assert.Contains(t, out, `"abc" is not a valid id`)
	assert.Contains(t, out, "usage: /pay")
	assert.Contains(t, out, "Unknown command: /nope")
}
