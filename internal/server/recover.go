package server

import (
	"log/slog"
	"net/http"

	"github.com/studykit/studygate/internal/domain"
)

// RecoverMiddleware converts panics into the uniform JSON error shape.
// The panic value is logged but never reaches the client; the response
// is always a generic INTERNAL_ERROR.
func RecoverMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					domain.WriteError(w, domain.ErrInternal())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
