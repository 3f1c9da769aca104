// Package grid serves the tree grid: a JSON API over the data source, a
// Datastar SSE stream of committed moves and a server-rendered page.
package grid

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/leapstack-labs/treegrid/internal/ui/notifier"
)

// SetupRoutes registers the grid feature routes.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	pageSize int,
) error {
	handlers := NewHandlers(eng, sessionStore, notify, pageSize)

	// Page routes
	router.Get("/", handlers.GridPage)

	router.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", handlers.ListRecords)
			r.Get("/{id}", handlers.GetRecord)
			r.Get("/{id}/draggable", handlers.Draggable)
			r.Get("/{id}/droppable/{target}", handlers.Droppable)
			r.Post("/{id}/move", handlers.Move)
		})

		r.Get("/rows", handlers.Rows)
		r.Post("/expanded/{id}", handlers.Expand)
		r.Delete("/expanded/{id}", handlers.Collapse)
		r.Get("/moves", handlers.Moves)

		// Datastar endpoints
		r.Get("/events", handlers.Events)
		r.Post("/drop", handlers.Drop)
	})

	return nil
}
