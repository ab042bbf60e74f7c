// Package requesttime pins one "now" per HTTP request. Every operation in
// a request sees the same timestamp, so artifact paths, scan records and
// audit entries from one request never disagree about when it happened.
package requesttime

import (
	"net/http"
	"time"

	"guestpass/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
