package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/store"
	"github.com/kozaktomas/facegate/internal/web/handlers"
	"github.com/kozaktomas/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes(st store.Store, m access.Matcher, rec access.Recorder) {
	accessHandler := handlers.NewAccessHandler(st, m, rec)
	identitiesHandler := handlers.NewIdentitiesHandler(st)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.Web.APIToken))

			// Identities
			r.Get("/identities", identitiesHandler.List)
			r.Get("/identities/{id}", identitiesHandler.Get)

			// Access checks
			r.Post("/access/check", accessHandler.Check)
		})
	})
}
