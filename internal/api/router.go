// Package api exposes the browsing catalog as read-only JSON.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the API router with all endpoints registered. Paths are
// relative so the router can be mounted under /api.
func NewRouter(h *BooksHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Cache-Control", "no-cache"))

	r.Get("/books", h.List)
	r.Get("/books/{id}", h.Get)
	r.Get("/state", h.State)
	r.Get("/catalog.json", h.Catalog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
