package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"printshop/internal/app"
	"printshop/internal/core"
	"printshop/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeService implements the handful of methods these tests reach; anything else
// panics through the nil embedded interface.
type fakeService struct {
	app.ApplicationService

	chatCalls int
	chatReq   app.ChatRequest
	chatErr   error

	orderErr error
	qr       []byte
}

func (f *fakeService) Chat(_ context.Context, req app.ChatRequest) (*app.ChatResult, error) {
	f.chatCalls++
	f.chatReq = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &app.ChatResult{Response: "Order #42 has ₹300 due.", Iterations: 2}, nil
}

func (f *fakeService) Authenticate(_ context.Context, email, password string) (*app.UserSession, error) {
	if email != "asha@shop.test" || password != "correct horse" {
		return nil, core.ErrInvalidCredentials
	}
	return &app.UserSession{StaffID: 5, Name: "Asha", Email: email, Role: core.RoleStaff}, nil
}

func (f *fakeService) GetStaff(_ context.Context, id int) (*core.Staff, error) {
	return &core.Staff{ID: id, Name: "Asha", Email: "asha@shop.test", Role: core.RoleStaff}, nil
}

func (f *fakeService) ListStaff(context.Context) ([]core.Staff, error) {
	return []core.Staff{{ID: 1, Name: "Owner", Role: core.RoleAdmin}}, nil
}

func (f *fakeService) GetOrder(_ context.Context, id int) (*app.OrderDetailResult, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &app.OrderDetailResult{Order: &core.Order{ID: id}}, nil
}

func (f *fakeService) InvoiceQR(_ context.Context, _, _ int) ([]byte, error) {
	return f.qr, nil
}

func newTestServer(t *testing.T, svc *fakeService, opts Options) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	opts.JWTSecret = testSecret
	return NewHandler(ctx, svc, opts)
}

func tokenFor(t *testing.T, staffID int, role string) string {
	t.Helper()
	tok, err := (&Handler{jwtSecret: testSecret}).signToken(staffID, role, time.Now())
	require.NoError(t, err)
	return tok
}

func do(h http.Handler, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const validChat = `{"history":[{"role":"user","parts":[{"text":"What is due on order 42?"}]}]}`

// ── Chat endpoint ─────────────────────────────────────────────────────────────

func TestChat_MissingAuthorizationNeverReachesModel(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, Options{})

	rec := do(h, http.MethodPost, "/functions/v1/chat", "", validChat)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
	assert.Zero(t, svc.chatCalls)

	rec = do(h, http.MethodPost, "/functions/v1/chat", "not-a-jwt", validChat)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.chatCalls)
}

func TestChat_Preflight(t *testing.T) {
	h := newTestServer(t, &fakeService{}, Options{})

	rec := do(h, http.MethodOptions, "/functions/v1/chat", "", "", "Origin", "https://console.example")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "apikey")
}

func TestChat_MalformedBody(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, Options{})
	tok := tokenFor(t, 5, core.RoleStaff)

	rec := do(h, http.MethodPost, "/api/chat", tok, `{"history":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/chat", tok, `{"history":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.chatCalls)
}

func TestChat_Success(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, Options{})

	body := `{"history":[
		{"role":"user","parts":[{"text":"hi"}]},
		{"role":"model","parts":[{"text":"Hello!"}]},
		{"role":"user","parts":[{"text":"What is due"},{"text":"on order 42?"}]}
	]}`
	rec := do(h, http.MethodPost, "/functions/v1/chat", tokenFor(t, 5, core.RoleStaff), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Order #42 has ₹300 due.", decodeBody(t, rec)["response"])

	require.Equal(t, 1, svc.chatCalls)
	assert.Equal(t, 5, svc.chatReq.StaffID)
	require.Len(t, svc.chatReq.History, 3)
	assert.Equal(t, "What is due\non order 42?", svc.chatReq.History[2].Text)
}

func TestChat_ErrorMapping(t *testing.T) {
	tok := tokenFor(t, 5, core.RoleStaff)
	cases := []struct {
		err    error
		status int
	}{
		{core.Invalid("history", "the last turn must be from the user"), http.StatusBadRequest},
		{errors.New("model call 1: upstream timeout"), http.StatusInternalServerError},
		{app.ErrAssistantUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := newTestServer(t, &fakeService{chatErr: tc.err}, Options{})
		rec := do(h, http.MethodPost, "/functions/v1/chat", tok, validChat)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.NotEmpty(t, decodeBody(t, rec)["error"])
	}
}

func TestChat_APIKey(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, Options{APIKey: "anon-key"})
	tok := tokenFor(t, 5, core.RoleStaff)

	rec := do(h, http.MethodPost, "/functions/v1/chat", tok, validChat, "apikey", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.chatCalls)

	rec = do(h, http.MethodPost, "/functions/v1/chat", tok, validChat, "apikey", "anon-key")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_RateLimitedPerCaller(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, Options{ChatRatePerMinute: 2})
	asha, ravi := tokenFor(t, 5, core.RoleStaff), tokenFor(t, 6, core.RoleStaff)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/chat", asha, validChat).Code)
	}
	rec := do(h, http.MethodPost, "/api/chat", asha, validChat)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/chat", ravi, validChat).Code)
	assert.Equal(t, 3, svc.chatCalls)
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestLoginAndMe(t *testing.T) {
	h := newTestServer(t, &fakeService{}, Options{})

	rec := do(h, http.MethodPost, "/api/auth/login", "", `{"email":"asha@shop.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/login", "", `{"email":"asha@shop.test","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	assert.Equal(t, float64(5), body["staff_id"])

	rec = do(h, http.MethodGet, "/api/auth/me", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asha", decodeBody(t, rec)["name"])
}

func TestStaffListIsAdminOnly(t *testing.T) {
	h := newTestServer(t, &fakeService{}, Options{})

	rec := do(h, http.MethodGet, "/api/staff", tokenFor(t, 5, core.RoleStaff), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodGet, "/api/staff", tokenFor(t, 1, core.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	h := newTestServer(t, &fakeService{}, Options{})
	old, err := (&Handler{jwtSecret: testSecret}).signToken(5, core.RoleStaff, time.Now().Add(-2*tokenTTL))
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/api/auth/me", old, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ── Error mapping ─────────────────────────────────────────────────────────────

func TestGetOrder_ErrorMapping(t *testing.T) {
	tok := tokenFor(t, 5, core.RoleStaff)
	notFound := fmt.Errorf("order 42: %w", core.ErrNotFound)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", notFound, http.StatusNotFound, "NOT_FOUND"},
		{"aggregation", &messaging.AggregationError{OrderID: 42, Read: "payments", Err: errors.New("timeout")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"not found inside aggregation", &messaging.AggregationError{OrderID: 42, Read: "summary", Err: notFound}, http.StatusNotFound, "NOT_FOUND"},
		{"validation", core.Invalid("status", "must be one of: Pending"), http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, &fakeService{orderErr: tc.err}, Options{})
			rec := do(h, http.MethodGet, "/api/orders/42", tok, "", "X-Request-ID", "req-1")
			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.code, body["code"])
			assert.Equal(t, "req-1", body["request_id"])
		})
	}
}

func TestBadPathID(t *testing.T) {
	h := newTestServer(t, &fakeService{}, Options{})
	rec := do(h, http.MethodGet, "/api/orders/abc", tokenFor(t, 5, core.RoleStaff), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeBody(t, rec)["code"])
}

func TestInvoiceQR(t *testing.T) {
	h := newTestServer(t, &fakeService{qr: []byte("\x89PNG fake")}, Options{})
	rec := do(h, http.MethodGet, "/api/orders/42/invoice-qr?size=300", tokenFor(t, 5, core.RoleStaff), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG fake", rec.Body.String())
}
