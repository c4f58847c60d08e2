package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// DefaultTimeUpdatesPerMinute leaves headroom for two sessions' worth of 60 fps
// playback-time ticks per client and endpoint.
const DefaultTimeUpdatesPerMinute = 7200

// PerClientEndpoint returns middleware allowing at most limit requests per
// window for each client IP and request path, answering excess requests with
// 429 and a Retry-After header. Session routes carry the session id in the
// path, so every session of a client gets its own budget. A non-positive
// limit disables limiting.
func PerClientEndpoint(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	)
}
