package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/health", h.HealthHandler)
}
