package web

import (
	"net/http"

	"printshop/internal/app"
)

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"templates": templates})
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	t, err := h.svc.GetTemplate(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, t)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req app.TemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTemplate(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, t)
}

// composeMessage handles POST /api/messages/compose. Nothing is sent or logged; the
// console opens the returned WhatsApp link and then calls logMessage.
func (h *Handler) composeMessage(w http.ResponseWriter, r *http.Request) {
	var req app.ComposeMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.ComposeMessage(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

func (h *Handler) logMessage(w http.ResponseWriter, r *http.Request) {
	var req app.LogMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.StaffID = staffID(r)
	entry, err := h.svc.LogMessage(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, entry)
}

// listMessages handles GET /api/messages?customer_id=&page=&page_size=.
func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	page, err := h.svc.ListMessageLogs(r.Context(), p.CustomerID, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) listCustomerMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p, err := listParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	page, err := h.svc.ListMessageLogs(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, page)
}
