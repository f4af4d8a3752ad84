package server

import (
	"net"
	"net/http"
	"time"

	"github.com/studykit/studygate/internal/domain"
	"github.com/studykit/studygate/internal/ratelimit"
)

// RateLimitMiddleware enforces the per-client fixed-window limit. It
// runs before authentication so unauthenticated floods are cut off too.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(clientIP(r), time.Now())
			if !decision.Allowed {
				AddLogField(r.Context(), "rate_limited", "true")
				domain.WriteError(w, domain.ErrRateLimited(decision.RetryAfterSeconds))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the rate-limit bucket key: the host portion of the remote
// address. chi's RealIP middleware runs first, so behind a proxy this is
// the originating client, not the proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
