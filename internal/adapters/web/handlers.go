package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"printshop/internal/app"
	"printshop/internal/core"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Paths served to browser clients on any origin.
const (
	chatPath      = "/functions/v1/chat"
	chatAliasPath = "/api/chat"
)

// Options configures NewHandler.
type Options struct {
	AllowedOrigins    string
	JWTSecret         string
	APIKey            string // empty disables the apikey header check
	ChatRatePerMinute int
	Logger            *zap.Logger
}

// Handler holds the ApplicationService and the per-caller chat limiter.
type Handler struct {
	svc       app.ApplicationService
	log       *zap.Logger
	jwtSecret string
	apiKey    string
	limiter   *callerLimiter
}

// NewHandler creates and wires the chi router with all routes. ctx bounds the
// handler's background maintenance.
func NewHandler(ctx context.Context, svc app.ApplicationService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:       svc,
		log:       log,
		jwtSecret: opts.JWTSecret,
		apiKey:    opts.APIKey,
		limiter:   newCallerLimiter(opts.ChatRatePerMinute),
	}
	h.limiter.startSweep(ctx)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins, chatPath, chatAliasPath))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(64<<10)).Post("/api/auth/login", h.login)

	// ── Assistant ─────────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(h.RequireAPIKey)
		r.Use(h.limiter.RateLimit)
		r.Use(RequestBodyLimit(1 << 20))
		r.Post(chatPath, h.chat)
		r.Post(chatAliasPath, h.chat)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20))

		r.Get("/api/auth/me", h.me)
		r.With(RequireAdmin).Get("/api/staff", h.listStaff)

		r.Get("/api/customers", h.listCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Put("/api/customers/{id}", h.updateCustomer)
		r.Get("/api/customers/{id}/statement", h.customerStatement)
		r.Get("/api/customers/{id}/messages", h.listCustomerMessages)

		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)

		r.Get("/api/orders", h.listOrders)
		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Post("/api/orders/{id}/status", h.updateOrderStatus)
		r.Get("/api/orders/{id}/history", h.orderHistory)
		r.Get("/api/orders/{id}/payments", h.listPayments)
		r.Post("/api/orders/{id}/payments", h.recordPayment)
		r.Get("/api/orders/{id}/invoice-qr", h.invoiceQR)

		r.Get("/api/templates", h.listTemplates)
		r.Post("/api/templates", h.createTemplate)
		r.Get("/api/templates/{id}", h.getTemplate)

		r.Post("/api/messages/compose", h.composeMessage)
		r.Post("/api/messages", h.logMessage)
		r.Get("/api/messages", h.listMessages)

		r.Get("/api/dashboard/summary", h.salesSummary)
		r.Get("/api/dashboard/outstanding", h.outstandingBalances)

		r.Get("/api/chat/history", h.chatHistory)

		r.Get("/api/notifications", h.recentNotifications)
		r.Get("/api/notifications/stream", h.notificationStream)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter as a positive integer.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, badRequest("id must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(name + " must be a non-negative integer")
	}
	return n, nil
}

// listParams reads page, page_size, sort, desc, q, status and customer_id.
func listParams(r *http.Request) (core.ListParams, error) {
	q := r.URL.Query()
	p := core.ListParams{
		SortBy:   q.Get("sort"),
		SortDesc: q.Get("desc") == "true" || q.Get("desc") == "1",
		Search:   q.Get("q"),
		Status:   q.Get("status"),
	}
	var err error
	if p.Page, err = queryInt(r, "page"); err != nil {
		return p, err
	}
	if p.PageSize, err = queryInt(r, "page_size"); err != nil {
		return p, err
	}
	if p.CustomerID, err = queryInt(r, "customer_id"); err != nil {
		return p, err
	}
	return p, nil
}
