package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. The write timeout leaves room for
// render requests, which decode and re-encode full template images.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
