// Package app holds the catalog application state and the pure transitions
// between states. Every user or load event is an Event dispatched through a
// Bindings table; the Router state inside State is the only thing that
// decides which view is visible.
package app

import (
	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/route"
)

// State is the whole application state. It is a value: transitions return a
// new State and never modify their input.
type State struct {
	Catalog   *catalog.Catalog
	Loaded    bool
	LoadError error
	Query     string
	Route     route.State
	// Fragment mirrors the URL fragment for Route.
	Fragment string
	// Redirected is set when the last transition fell back from a missing
	// book to the listing.
	Redirected bool
	// LastSelected is the last book opened from the grid, used to restore
	// scroll position when going back.
	LastSelected int64
}

// Initial returns the state before the catalog is loaded. The fragment is
// remembered so the route can be resolved once books arrive.
func Initial(fragment string) State {
	r := route.Parse(fragment)
	return State{
		Catalog:  catalog.Empty(),
		Route:    r,
		Fragment: r.Fragment(),
	}
}

// Detail reports whether the detail view is visible.
func (s State) Detail() bool {
	return s.Loaded && s.Route.IsDetail()
}
