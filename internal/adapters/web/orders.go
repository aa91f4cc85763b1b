package web

import (
	"net/http"
	"strconv"

	"printshop/internal/app"
)

// ── Orders ────────────────────────────────────────────────────────────────────

// listOrders handles GET /api/orders?status=&customer_id=&q=&page=&page_size=&sort=&desc=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	page, err := h.svc.ListOrders(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	detail, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, detail)
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.StaffID = staffID(r)
	res, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, res)
}

// updateOrderStatus handles POST /api/orders/{id}/status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req app.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderID, req.StaffID = id, staffID(r)
	order, err := h.svc.UpdateOrderStatus(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, order)
}

// orderHistory handles GET /api/orders/{id}/history.
func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	history, err := h.svc.OrderStatusHistory(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"history": history})
}

// invoiceQR handles GET /api/orders/{id}/invoice-qr?size=.
func (h *Handler) invoiceQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	png, err := h.svc.InvoiceQR(r.Context(), id, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(png)
}

// ── Payments ──────────────────────────────────────────────────────────────────

// listPayments handles GET /api/orders/{id}/payments.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"payments": payments})
}

// recordPayment handles POST /api/orders/{id}/payments.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req app.RecordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderID, req.StaffID = id, staffID(r)
	res, err := h.svc.RecordPayment(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, res)
}
