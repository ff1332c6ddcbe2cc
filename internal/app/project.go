package app

import (
	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/search"
	"github.com/erazemk/rincon/internal/view"
)

// Projection is everything needed to display a state.
type Projection struct {
	Route       string            `json:"route"`
	Fragment    string            `json:"fragment"`
	Redirected  bool              `json:"redirected"`
	Summary     string            `json:"summary,omitempty"`
	Listing     *view.Listing     `json:"listing,omitempty"`
	Detail      *view.Detail      `json:"detail,omitempty"`
	Descriptors meta.Descriptors  `json:"descriptors"`
	Meta        map[string]string `json:"meta"`
	Loading     bool              `json:"loading,omitempty"`
	LoadError   string            `json:"loadError,omitempty"`
}

// Project builds the view models and page descriptors for s. In the detail
// view the book descriptors apply; everywhere else the site defaults do.
func Project(s State, opts view.Options) Projection {
	p := Projection{
		Route:      s.Route.Kind.String(),
		Fragment:   s.Fragment,
		Redirected: s.Redirected,
	}

	if !s.Loaded {
		p.Loading = true
		p.Descriptors = meta.Defaults(opts.Site)
		p.Meta = p.Descriptors.Values()
		return p
	}

	if b, ok := s.Catalog.Find(s.Route.BookID); s.Route.IsDetail() && ok {
		d := view.NewDetail(b, s.Catalog.Books(), opts)
		p.Detail = &d
		p.Descriptors = meta.ForBook(opts.Site, opts.Prices, b)
	} else {
		res := search.Filter(s.Catalog.Books(), s.Query)
		l := view.NewListing(res, s.LoadError != nil, opts)
		p.Listing = &l
		p.Summary = res.Summary()
		p.Descriptors = meta.Defaults(opts.Site)
	}
	if s.LoadError != nil {
		p.LoadError = view.LoadFailedMessage
	}
	p.Meta = p.Descriptors.Values()
	return p
}

// Head returns a page head synchronised with the projection.
func (p Projection) Head() *meta.Head {
	return meta.NewHeadFor(p.Descriptors)
}
