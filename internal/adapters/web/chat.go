package web

import (
	"net/http"
	"strings"

	"printshop/internal/app"
)

type chatPart struct {
	Text string `json:"text"`
}

type chatMessage struct {
	Role  string     `json:"role"`
	Parts []chatPart `json:"parts"`
}

type chatRequest struct {
	History []chatMessage `json:"history"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// chat handles POST /functions/v1/chat and POST /api/chat. Auth, the apikey check and
// rate limiting have already run; the model is only reached with a well-formed history.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.History) == 0 {
		writeError(w, r, "history is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	turns := make([]app.ChatTurn, len(req.History))
	for i, m := range req.History {
		texts := make([]string, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		turns[i] = app.ChatTurn{Role: strings.ToLower(m.Role), Text: strings.Join(texts, "\n")}
	}

	res, err := h.svc.Chat(r.Context(), app.ChatRequest{History: turns, StaffID: staffID(r)})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, chatResponse{Response: res.Response})
}

// chatHistory handles GET /api/chat/history for the signed-in staff member.
func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list, err := h.svc.ChatHistory(r.Context(), staffID(r), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"transcripts": list})
}
