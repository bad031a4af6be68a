// Package middleware adapts the shared HTTP middleware to the API's JSON
// error format
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/shatterrealms/internal/api/apierr"
	"github.com/mcoot/shatterrealms/internal/middleware"
)

// Recovery creates panic recovery middleware answering with a JSON 500
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// RateLimit throttles requests per client IP, answering throttled requests
// with a JSON 429
func RateLimit(limiter *middleware.RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return limiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("rate limited",
			slog.String("remote", r.RemoteAddr),
			slog.String("path", r.URL.Path))
		apierr.WriteError(w, apierr.NewRateLimitedError())
	})
}
