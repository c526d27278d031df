// Package httpserver builds the listener for the query, admin, and insight
// surface.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in a server with a bounded header read. Per-request
// deadlines are the router middleware's job; this timeout only keeps a
// client that never finishes its headers from pinning a connection.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
