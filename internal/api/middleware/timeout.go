package middleware

import (
	"context"
	"net/http"
	"time"
)

// QueryTimeout returns middleware that caps the request context at d.
// Handlers translate the resulting context errors into 503 responses.
func QueryTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
