package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analysis", func(r chi.Router) {
		// A run fetches prices for every factor and instrument; give it room.
		r.Use(middleware.Timeout(300 * time.Second))

		r.Post("/run", h.HandleRun)
		r.Get("/latest", h.HandleLatest)
		r.Get("/latest/text", h.HandleLatestText)
		r.Get("/{id}", h.HandleGet)
	})
}
