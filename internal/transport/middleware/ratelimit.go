package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/transport"
)

var errTooManyAttempts = &internal.AppError{
	Type:       internal.ErrorTypeValidation,
	Code:       "TOO_MANY_REQUESTS",
	Message:    "Too many login attempts, try again later",
	StatusCode: http.StatusTooManyRequests,
}

// LoginRateLimit limits credential submissions per client IP per minute.
// A non-positive limit disables it.
func LoginRateLimit(requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	base := transport.NewBaseHandler(logger)
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "login rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			base.WriteAppError(w, errTooManyAttempts)
		}),
	)
}
