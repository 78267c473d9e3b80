package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/pkg/logger"
)

// AppErrorer is implemented by domain errors that know their HTTP representation.
type AppErrorer interface {
	AppError() *internal.AppError
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a bare error response for transport-level failures.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteAppError(w, &internal.AppError{
		Type:       internal.ErrorTypeValidation,
		Code:       internal.ErrCodeInvalidRequest,
		Message:    message,
		StatusCode: status,
	})
}

// WriteAppError renders an AppError as {"error": {...}}.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr.Cause)
	} else {
		h.Logger.Debug("http error", "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.Message)
	}

	if appErr.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps an error returned by a service onto a response.
// Anything that is not a known domain error becomes a 500 without details.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	var conv AppErrorer
	if errors.As(err, &conv) {
		h.WriteAppError(w, conv.AppError())
		return
	}

	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}

	h.WriteAppError(w, internal.NewInternalError("internal server error", err))
}

// ParseIDParam parses a positive integer path or query value.
func ParseIDParam(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParsePagination reads limit (1..100, default 20) and offset query values.
func ParsePagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
