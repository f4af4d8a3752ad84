// Package server composes the HTTP surface of the gateway: the chi
// router, the middleware chain, and the API handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/studykit/studygate/internal/config"
	"github.com/studykit/studygate/internal/ratelimit"
	"github.com/studykit/studygate/internal/session"
)

// Server is the gateway HTTP server.
type Server struct {
	Router *chi.Mux
	hs     *http.Server
	logger *slog.Logger
}

// New builds the router and middleware chain. Pipeline order under /api:
// rate limit (always) -> auth (login, status and health exempt) ->
// per-endpoint validation -> business call. Any stage failure
// short-circuits straight to the normalized error writer.
func New(cfg *config.Config, logger *slog.Logger, sessions *session.Store, limiter *ratelimit.Limiter, gateway Gateway) *Server {
	auth := NewAuth(cfg.Auth.Password, cfg.Auth.ProfPassword, sessions)
	h := NewHandler(cfg, auth, sessions, limiter, gateway)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoverMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "studygate")
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))
		r.NotFound(h.NotFound)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/prof-login", h.ProfLogin)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/status", h.AuthStatus)
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(auth))
			r.Post("/summarize", h.Summarize)
			r.Post("/flashcards", h.Flashcards)
			r.Post("/podcast", h.Podcast)
		})
	})

	return &Server{
		Router: r,
		hs: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: r,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.hs.Addr))
	if err := s.hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hs.Shutdown(ctx)
}
