// Package requestid assigns each request a correlation ID, honoring one
// supplied by the caller so IDs survive proxy hops.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"guestpass/pkg/requestcontext"
)

// Header is the request ID header read from requests and echoed back.
const Header = "X-Request-ID"

// Middleware stores the request ID in the context and response header,
// generating one when the caller did not send it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
