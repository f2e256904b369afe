// Package server exposes the exchange-rate dashboard over HTTP: an HTML
// table of the posted board plus a small JSON API for rates, conversion, and
// manual refresh.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ratewatch/internal/board"
)

// Server wires the dashboard handlers onto an http.Server.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	svc        *board.Service
	log        *slog.Logger
}

// NewServer builds the dashboard server on addr.
func NewServer(addr string, svc *board.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router: router,
		svc:    svc,
		log:    log,
	}

	router.Get("/", s.handleIndex)
	router.Get("/api/rates", s.handleRates)
	router.Get("/api/convert", s.handleConvert)
	router.Post("/api/refresh", s.handleRefresh)

	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("dashboard listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
