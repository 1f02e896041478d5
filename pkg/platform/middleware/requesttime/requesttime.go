// Package requesttime captures one "now" per request so code expiry checks,
// token issuance and row timestamps within a request agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"touch/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
