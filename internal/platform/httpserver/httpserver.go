package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults suited to the broker. Only header
// reads are bounded: a connection-level read or write deadline would cut the
// long-lived waiting stream.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
