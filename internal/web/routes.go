package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/mask-sentry/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	inspectHandler := handlers.NewInspectHandler(s.inspector, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Post("/inspect", inspectHandler.Inspect)
	})

	if s.metrics != nil {
		s.router.Method("GET", "/metrics", s.metrics)
	}
}
