package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/mahyar-jbr/dog-wash-booking/internal/http/response"
)

// RateLimitPerMinute limits each client IP to requests per minute. A
// non-positive limit disables limiting.
func RateLimitPerMinute(requests int) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.RateLimit(w, "Too many requests. Try again later.")
		}),
	)
}
