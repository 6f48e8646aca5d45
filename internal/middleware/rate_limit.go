package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// SendTokenRateLimit returns a coarse per-IP limiter for the one-time-code
// dispatch endpoint. This sits in front of the admission gate's own
// per-(client,route) limiter: code dispatch costs real money per request,
// so it gets a much tighter budget than the general API.
func SendTokenRateLimit(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Too many verification codes requested"}`))
		}),
	)
}
