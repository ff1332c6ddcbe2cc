package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/erazemk/rincon/internal/meta"
	webembed "github.com/erazemk/rincon/web"
)

// Page names.
const (
	PageListing  = "listing"
	PageItem     = "item"
	PageRedirect = "item_redirect"
)

// Page is the data every catalog template receives.
type Page struct {
	Site    meta.Site
	Head    *meta.Head
	Listing *Listing
	// Details are embedded in the listing page and shown when their
	// fragment is targeted.
	Details []Detail
	Detail  *Detail
	// RedirectURL is set on preview pages that forward to the listing.
	RedirectURL string
	// LoadError is shown instead of the grid when the catalog failed to load.
	LoadError string
}

// Renderer executes the embedded catalog templates.
type Renderer struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"meta": func(h *meta.Head, key string) string {
			if h == nil {
				return ""
			}
			return h.Get(key)
		},
		"detailID": func(id int64) string {
			return fmt.Sprintf("item/%d", id)
		},
	}
}

// NewRenderer parses the catalog templates from the embedded file system.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(webembed.TemplatesFS())
}

// NewRendererFS parses the catalog templates from tfs.
func NewRendererFS(tfs fs.FS) (*Renderer, error) {
	layout, err := fs.ReadFile(tfs, "site/layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{PageListing, PageItem, PageRedirect} {
		page, err := fs.ReadFile(tfs, "site/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		tmpl, err := template.New(name).Funcs(FuncMap()).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", name, err)
		}
		if tmpl, err = tmpl.Parse(string(page)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render executes the named page into w.
func (r *Renderer) Render(w io.Writer, name string, page *Page) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if err := tmpl.ExecuteTemplate(w, "layout", page); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}
