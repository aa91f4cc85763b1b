package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"printshop/internal/app"
	"printshop/internal/core"
	"printshop/internal/messaging"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestError is a handler-level rejection (bad path id, bad query value) that
// carries its own HTTP status.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(msg string) error {
	return &RequestError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: msg}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps an application error to its HTTP status. Not-found is
// checked before AggregationError so a missing order inside an aggregation is a 404.
// Unclassified errors are logged and reported without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *RequestError
		valErr *core.ValidationError
		aggErr *messaging.AggregationError
	)
	switch {
	case errors.As(err, &reqErr):
		writeError(w, r, reqErr.Message, reqErr.Code, reqErr.Status)
	case errors.As(err, &valErr):
		writeError(w, r, valErr.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, "invalid email or password", "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &aggErr):
		h.log.Error("order aggregation failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Int("order_id", aggErr.OrderID),
			zap.String("read", aggErr.Read),
			zap.Error(aggErr.Err),
		)
		writeError(w, r, "could not load order data, please retry", "UPSTREAM_ERROR", http.StatusBadGateway)
	case errors.Is(err, app.ErrAssistantUnavailable):
		writeError(w, r, err.Error(), "AI_UNAVAILABLE", http.StatusServiceUnavailable)
	default:
		h.log.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
