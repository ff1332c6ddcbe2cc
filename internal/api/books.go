package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/rincon/internal/app"
	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/digest"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/search"
	"github.com/erazemk/rincon/internal/series"
	"github.com/erazemk/rincon/internal/view"
)

// BooksHandler serves the catalog loaded at startup. The catalog is never
// modified after construction, so the handler is safe for concurrent use.
type BooksHandler struct {
	catalog *catalog.Catalog
	loadErr error
	opts    view.Options

	raw  []byte
	etag string
}

// NewBooksHandler creates a handler over c. loadErr is the error the catalog
// load returned, if any; the catalog is then expected to be empty.
func NewBooksHandler(c *catalog.Catalog, loadErr error, opts view.Options) (*BooksHandler, error) {
	if c == nil {
		c = catalog.Empty()
	}
	raw, err := catalog.Encode(c.Books())
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return &BooksHandler{
		catalog: c,
		loadErr: loadErr,
		opts:    opts,
		raw:     raw,
		etag:    digest.ETag(raw),
	}, nil
}

type listResponse struct {
	Query   string       `json:"query"`
	Summary string       `json:"summary,omitempty"`
	Count   int          `json:"count"`
	Books   []model.Book `json:"books"`
}

// List handles GET /books?q=.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	res := search.Filter(h.catalog.Books(), r.URL.Query().Get("q"))
	books := res.Books
	if books == nil {
		books = []model.Book{}
	}
	jsonResponse(w, http.StatusOK, listResponse{
		Query:   res.Query,
		Summary: res.Summary(),
		Count:   len(books),
		Books:   books,
	})
}

type seriesResponse struct {
	ID           model.SeriesID      `json:"id"`
	Total        int                 `json:"total"`
	Present      int                 `json:"present"`
	Available    int                 `json:"available"`
	Missing      int                 `json:"missing"`
	Completeness series.Completeness `json:"completeness"`
	Related      []model.Book        `json:"related"`
}

type bookResponse struct {
	Book           model.Book      `json:"book"`
	EffectivePrice float64         `json:"effectivePrice"`
	ShareURL       string          `json:"shareUrl"`
	Series         *seriesResponse `json:"series,omitempty"`
}

// Get handles GET /books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	b, ok := h.catalog.Find(id)
	if !ok {
		jsonError(w, http.StatusNotFound, "book not found")
		return
	}

	resp := bookResponse{
		Book:           b,
		EffectivePrice: b.EffectivePrice(),
		ShareURL:       h.opts.Site.ShareURL(b.ID),
	}
	if info := series.Resolve(b, h.catalog.Books()); info.ShowBanner() {
		resp.Series = &seriesResponse{
			ID:           info.SeriesID,
			Total:        info.Total,
			Present:      info.Present,
			Available:    info.Available,
			Missing:      info.Missing(),
			Completeness: info.Completeness,
			Related:      info.Related,
		}
	}
	jsonResponse(w, http.StatusOK, resp)
}

// State handles GET /state?fragment=&q=. It replays the events a browser
// would produce for that address and returns the resulting projection.
func (h *BooksHandler) State(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bindings := app.DefaultBindings()

	s := app.Initial(q.Get("fragment"))
	if h.loadErr != nil {
		s = bindings.Dispatch(s, app.Event{Type: app.LoadFailed, Err: h.loadErr})
	} else {
		s = bindings.Dispatch(s, app.Event{Type: app.Loaded, Catalog: h.catalog})
	}
	if query := q.Get("q"); query != "" {
		s = bindings.Dispatch(s, app.Event{Type: app.QueryChanged, Query: query})
	}

	jsonResponse(w, http.StatusOK, app.Project(s, h.opts))
}

// Catalog handles GET /catalog.json. Clients revalidate with If-None-Match.
func (h *BooksHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(h.raw)))
	if _, err := w.Write(h.raw); err != nil {
		slog.Error("failed to write catalog response", "error", err)
	}
}
