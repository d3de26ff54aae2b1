// Package httpapi exposes the HTTP surface described in spec §6 over a bare
// net/http.ServeMux, generalizing the teacher's internal/server package
// (same Server shape, same middleware chain) from its page/websocket/MCP
// routes to this pipeline's scrape/crawl/search endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anycrawl/anycrawl-core/internal/app"
)

// Server owns the mux and the *http.Server wrapping it.
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server
}

// New wires a Server against an already-constructed App.
func New(application *app.App) *Server {
	s := &Server{app: application}
	s.router = s.setupRoutes()

	cfg := application.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 360 * time.Second, // long-poll budget for crawl/LLM-backed scrapes
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	addr := s.server.Addr
	s.app.Logger().Info().Str("address", addr).Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops accepting new connections and drains in-flight
// ones within ctx's deadline (spec §5's bounded-drain shutdown sequence).
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger().Info().Msg("http server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	s.app.Logger().Info().Msg("http server stopped")
	return nil
}

// Handler exposes the fully wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
