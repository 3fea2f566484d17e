package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document and query routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/upload", h.Upload)
	r.Post("/query", h.Query)
	r.Post("/query/export", h.Export)
	r.Get("/clear", h.Clear)

	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.SessionStats)
		r.Delete("/", h.DeleteSession)
	})
}
