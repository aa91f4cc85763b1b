package web

import (
	"net/http"

	"printshop/internal/app"
)

// ── Customers ─────────────────────────────────────────────────────────────────

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	page, err := h.svc.ListCustomers(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req app.CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req app.CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.UpdateCustomer(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) customerStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	st, err := h.svc.CustomerStatement(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// ── Products ──────────────────────────────────────────────────────────────────

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"products": products})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.SalesSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) outstandingBalances(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	rows, err := h.svc.OutstandingBalances(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"balances": rows})
}
