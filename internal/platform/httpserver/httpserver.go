package httpserver

import (
	"net/http"

	"touch/internal/platform/config"
)

// New builds the API server with the configured connection timeouts.
func New(addr string, timeouts config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeaderTimeout,
		ReadTimeout:       timeouts.ReadTimeout,
		WriteTimeout:      timeouts.WriteTimeout,
		IdleTimeout:       timeouts.IdleTimeout,
	}
}
