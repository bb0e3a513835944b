package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/namewall-backend/internal/handlers"
)

// SetupRoutes registers the API, live feed, metrics and the static client.
// metricsHandler may be nil.
func SetupRoutes(r chi.Router, h *handlers.Handler, metricsHandler http.Handler, staticDir string) {
	r.Get("/health", handlers.Health)

	// Names
	r.Get("/api/names", h.ListNames)
	r.Post("/api/names", h.CreateName)

	// Feedback
	r.Post("/api/feedback", h.SubmitFeedback)
	r.Get("/api/feedback", h.ListFeedback)

	// Live feed of newly registered names
	r.Get("/ws/names", h.LiveNames)

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Everything else is the client shell
	r.Get("/*", handlers.Static(staticDir))
}
