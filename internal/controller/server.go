// Package controller wires the monitor HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"jobwatch/internal/controller/handlers"
	"jobwatch/internal/controller/middleware"
)

// Server is the HTTP server for the monitor API.
type Server struct {
	httpServer *http.Server
}

// New creates a new monitor server. Probes and /metrics bypass the rate
// limiter; every route is logged with its request ID.
func New(addr string, h *handlers.Handlers, limiter *middleware.RateLimiter, metricsHandler http.Handler, log *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      Routes(h, limiter, metricsHandler, log),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Routes builds the HTTP handler tree.
func Routes(h *handlers.Handlers, limiter *middleware.RateLimiter, metricsHandler http.Handler, log *slog.Logger) http.Handler {
	limited := limiter.Middleware()
	mux := http.NewServeMux()

	// Probes
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Scheduler passthrough
	mux.Handle("GET /api/time", limited(http.HandlerFunc(h.Time)))
	mux.Handle("GET /api/jobs", limited(http.HandlerFunc(h.ProxyJobs)))
	mux.Handle("GET /api/jobs/by_node", limited(http.HandlerFunc(h.ProxyJobsByNode)))
	mux.Handle("GET /api/locks", limited(http.HandlerFunc(h.ProxyLocks)))
	mux.Handle("GET /api/history", limited(http.HandlerFunc(h.ProxyHistory)))

	// Views
	mux.Handle("GET /views/jobs", limited(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /views/jobs/active", limited(http.HandlerFunc(h.ListActiveJobs)))
	mux.Handle("GET /views/nodes", limited(http.HandlerFunc(h.ListNodes)))
	mux.Handle("GET /views/history", limited(http.HandlerFunc(h.ListHistory)))
	mux.Handle("POST /views/refresh", limited(http.HandlerFunc(h.Refresh)))

	return middleware.RequestID(middleware.Logging(log)(mux))
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
