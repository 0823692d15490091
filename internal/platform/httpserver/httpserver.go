// Package httpserver builds the http.Server the venue backend runs on.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second

	// Kiosks and dashboards hold their connections between scans; recycling
	// them every few seconds would just add TLS churn.
	idleTimeout = 2 * time.Minute
)

// New builds the server. WriteTimeout stays unset: the watch endpoint
// streams events for as long as a dashboard is connected, and a server-wide
// write deadline would sever it mid-stream. Slow-client protection comes
// from the read timeouts and the per-route request deadlines instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
}
