// package server contains the loopback HTTP server used to receive OAuth redirects
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Loopback is a short lived HTTP server bound to a local address.
type Loopback struct {
	server   *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// StartLoopback binds addr and serves handler in the background.
//
// Binding happens before returning so a port conflict is reported immediately.
// Use "127.0.0.1:0" to pick a free port.
func StartLoopback(addr string, handler http.Handler, logger *log.Logger) (*Loopback, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l := &Loopback{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		errs:     make(chan error, 1),
		logger:   logger,
	}

	go func() {
		if err := l.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
	}()

	if logger != nil {
		logger.Debug("loopback server started", "addr", l.Addr())
	}
	return l, nil
}

// Addr returns the bound address, including the port picked for ":0".
func (l *Loopback) Addr() string {
	return l.listener.Addr().String()
}

// Errors receives at most one serve error.
func (l *Loopback) Errors() <-chan error {
	return l.errs
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (l *Loopback) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}
