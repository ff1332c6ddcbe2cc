package app

import (
	"fmt"
	"log/slog"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/route"
)

// EventType identifies an event.
type EventType int

const (
	Loaded EventType = iota
	LoadFailed
	QueryChanged
	QueryCleared
	FragmentChanged
	CardClicked
	RelatedClicked
	BackClicked
)

var eventNames = map[EventType]string{
	Loaded:          "loaded",
	LoadFailed:      "load_failed",
	QueryChanged:    "query_changed",
	QueryCleared:    "query_cleared",
	FragmentChanged: "fragment_changed",
	CardClicked:     "card_clicked",
	RelatedClicked:  "related_clicked",
	BackClicked:     "back_clicked",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is one input to the state machine. Only the fields relevant to the
// event type are read.
type Event struct {
	Type     EventType
	Catalog  *catalog.Catalog
	Err      error
	Query    string
	Fragment string
	BookID   int64
}

// Handler derives the next state from the current one.
type Handler func(State, Event) State

// Bindings maps each event type to its handler. It is built once and never
// changes.
type Bindings map[EventType]Handler

// DefaultBindings returns the catalog's event table.
func DefaultBindings() Bindings {
	return Bindings{
		Loaded:          onLoaded,
		LoadFailed:      onLoadFailed,
		QueryChanged:    onQueryChanged,
		QueryCleared:    onQueryCleared,
		FragmentChanged: onFragmentChanged,
		CardClicked:     onOpenBook,
		RelatedClicked:  onOpenBook,
		BackClicked:     onBack,
	}
}

// Dispatch applies ev to s. Events without a binding leave the state
// unchanged. Before the catalog is loaded only load events are handled.
func (b Bindings) Dispatch(s State, ev Event) State {
	h, ok := b[ev.Type]
	if !ok {
		slog.Warn("no handler bound for event", "event", ev.Type.String())
		return s
	}
	if !s.Loaded && ev.Type != Loaded && ev.Type != LoadFailed {
		if ev.Type == FragmentChanged {
			// Remember where to go once the catalog arrives.
			r := route.Parse(ev.Fragment)
			s.Route, s.Fragment = r, r.Fragment()
		}
		return s
	}
	return h(s, ev)
}

// Run dispatches events in order starting from s.
func (b Bindings) Run(s State, events ...Event) State {
	for _, ev := range events {
		s = b.Dispatch(s, ev)
	}
	return s
}

func onLoaded(s State, ev Event) State {
	s.Catalog = ev.Catalog
	if s.Catalog == nil {
		s.Catalog = catalog.Empty()
	}
	s.Loaded = true
	s.LoadError = nil
	return navigate(s, s.Route)
}

func onLoadFailed(s State, ev Event) State {
	s.Catalog = catalog.Empty()
	s.Loaded = true
	s.LoadError = ev.Err
	s.Route = route.Home()
	s.Fragment = ""
	slog.Error("catalog failed to load", "error", ev.Err)
	return s
}

func onQueryChanged(s State, ev Event) State {
	s.Query = ev.Query
	s.Redirected = false
	return s
}

func onQueryCleared(s State, _ Event) State {
	s.Query = ""
	s.Redirected = false
	return s
}

func onFragmentChanged(s State, ev Event) State {
	return navigate(s, route.Parse(ev.Fragment))
}

func onOpenBook(s State, ev Event) State {
	s = navigate(s, route.ToBook(ev.BookID))
	if s.Route.IsDetail() {
		s.LastSelected = s.Route.BookID
	}
	return s
}

func onBack(s State, _ Event) State {
	return navigate(s, route.Home())
}

// navigate resolves r against the catalog and updates the route and fragment
// together.
func navigate(s State, r route.State) State {
	res := route.Resolve(r, s.Catalog)
	s.Route = res.State
	s.Fragment = res.State.Fragment()
	s.Redirected = res.Redirected
	if res.Redirected {
		slog.Info("book not found, showing listing", "id", r.BookID)
	}
	return s
}
