package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/price"
	"github.com/erazemk/rincon/internal/view"
	webembed "github.com/erazemk/rincon/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map. Relative image references are
// served from the admin's own images route under prefix.
func FuncMap(prefix string, prices *price.Formatter) template.FuncMap {
	return template.FuncMap{
		"price": prices.Format,
		"imageSrc": func(ref string) template.URL {
			src := view.ImageSrc(ref)
			if strings.HasPrefix(string(src), view.ImagesDir+"/") {
				return template.URL(prefix + "/" + string(src))
			}
			return src
		},
		"statusName": func(status string) string {
			if status == model.StatusSold {
				return "Agotado"
			}
			return "Disponible"
		},
		"number": func(f float64) string {
			return strconv.FormatFloat(f, 'f', -1, 64)
		},
		"add": func(a, b int) int { return a + b },
	}
}

// LoadTemplates parses all admin page templates with the layout.
func LoadTemplates(funcs template.FuncMap) (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "admin/layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"books.html",
		"book_form.html",
		"export.html",
		"exports.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, "admin/"+page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(funcs)
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	Prefix    string
	CsrfField template.HTML
	Flashes   []FlashMessage
	// Dirty is set while there are edits that were never exported.
	Dirty bool
	Error string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Editor    *catalog.Editor
	Templates *Templates
	Sessions  sessions.Store
	ImagesDir string
	Prefix    string
}

// pageData collects the flashes queued for this request. It must run before
// anything is written to w, since consuming flashes rewrites the cookie.
func (s *Server) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	pd := PageData{
		Title:     title,
		Prefix:    s.Prefix,
		CsrfField: csrf.TemplateField(r),
		Dirty:     s.Editor.Dirty(),
	}

	session, err := s.Sessions.Get(r, sessionName)
	if err != nil {
		slog.Warn("failed to decode admin session", "error", err)
	}
	pd.Flashes = GetFlash(session)
	if len(pd.Flashes) > 0 {
		if err := session.Save(r, w); err != nil {
			slog.Error("failed to save admin session", "error", err)
		}
	}
	return pd
}

// path builds an absolute admin URL.
func (s *Server) path(format string, args ...any) string {
	return s.Prefix + fmt.Sprintf(format, args...)
}
