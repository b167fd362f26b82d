package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Get("/sessions/active", h.ActiveSessionHandler)
		r.Post("/sessions", h.StartSessionHandler)
		r.Post("/sessions/{course_code}/end", h.EndSessionHandler)

		r.Post("/capture", h.CaptureHandler)
		r.Post("/begin-attendance", h.BeginAttendanceHandler)

		r.Get("/students", h.ListStudentsHandler)
		r.Post("/students", h.CreateStudentHandler)
	})
}
