package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sendSSE writes one SSE event and flushes. data is JSON-marshalled.
func sendSSE(w http.ResponseWriter, f http.Flusher, event string, data any) {
	b, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(b))
	f.Flush()
}

// recentNotifications handles GET /api/notifications?limit=.
func (h *Handler) recentNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list, err := h.svc.RecentNotifications(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"notifications": list})
}

// notificationStream handles GET /api/notifications/stream.
//
// SSE event types:
//
//	ready         {}
//	notification  notify.Notification
//	ping          {}    every 25s so proxies keep the connection open
func (h *Handler) notificationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, "streaming not supported", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	events, stop, err := h.svc.SubscribeNotifications(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if present

	sendSSE(w, flusher, "ready", map[string]any{})

	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			sendSSE(w, flusher, "notification", n)
		case <-ping.C:
			sendSSE(w, flusher, "ping", map[string]any{})
		}
	}
}
