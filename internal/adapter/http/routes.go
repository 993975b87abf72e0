package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the health probes and all API routes on the given
// chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Environments
		r.Get("/environments", h.ListEnvironments)
		r.Post("/environments", h.CreateEnvironment)
		r.Get("/environments/{id}", h.GetEnvironment)
		r.Put("/environments/{id}", h.UpdateEnvironment)
		r.Delete("/environments/{id}", h.DeleteEnvironment)
		r.Post("/environments/{id}/copy", h.CopyEnvironment)

		// Content models (nested under environments)
		r.Get("/environments/{id}/content-models", h.ListContentModels)
		r.Post("/environments/{id}/content-models", h.CreateContentModel)
		r.Delete("/environments/{id}/content-models/{modelID}", h.DeleteContentModel)

		// Aliases
		r.Get("/environment-aliases", h.ListAliases)
		r.Post("/environment-aliases", h.CreateAlias)
		r.Get("/environment-aliases/{id}", h.GetAlias)
		r.Put("/environment-aliases/{id}", h.UpdateAlias)
		r.Delete("/environment-aliases/{id}", h.DeleteAlias)

		// Installation
		r.Post("/install", h.Install)
	})
}
