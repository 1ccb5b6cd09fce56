package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrsuite/faceauth/internal/faceauth"
	"github.com/hrsuite/faceauth/internal/web/handlers"
)

func (s *Server) setupRoutes(enroller *faceauth.Enroller, matcher *faceauth.Matcher, recorder *faceauth.Recorder) {
	enrollmentsHandler := handlers.NewEnrollmentsHandler(enroller, recorder, s.logger)
	verifyHandler := handlers.NewVerifyHandler(matcher, s.logger)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/enrollments", enrollmentsHandler.Enroll)
		r.Get("/enrollments/{id}", enrollmentsHandler.Status)
		r.Put("/enrollments/{id}/enabled", enrollmentsHandler.Toggle)
		r.Delete("/enrollments/{id}", enrollmentsHandler.Delete)
		r.Get("/enrollments/{id}/attempts", enrollmentsHandler.Attempts)

		r.Post("/verify", verifyHandler.Verify)
	})
}
