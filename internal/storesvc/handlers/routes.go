package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Get("/health", h.Health)

	r.Get("/sessions/active", h.ActiveSession)
	r.Post("/sessions", h.CreateSession)
	r.Post("/sessions/{course_code}/end", h.EndSession)

	r.Get("/attendance", h.ListAttendance)
	r.Post("/attendance", h.MarkAttendance)
	r.Post("/begin-attendance", h.BeginAttendance)

	r.Get("/students", h.ListStudents)
	r.Post("/students", h.CreateStudent)

	r.Post("/rfid", h.LinkCard)
	r.Post("/scans", h.ReportScan)
}
