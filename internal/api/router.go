package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Nodes CRUD (write root only).
	r.Get("/nodes", h.ListNodes)
	r.Post("/nodes", h.CreateNode)
	r.Get("/nodes/*", h.GetNode)
	r.Put("/nodes/*", h.UpdateNode)
	r.Delete("/nodes/*", h.DeleteNode)

	// Rename with link propagation.
	r.Post("/rename", h.Rename)

	// Graph views.
	r.Get("/graph", h.Graph)
	r.Get("/neighborhood/*", h.Neighborhood)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
