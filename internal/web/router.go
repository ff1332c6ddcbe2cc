// Package web serves the operator admin: browsing and editing the in-memory
// catalog copy, cover uploads and JSON exports.
package web

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/price"
	webembed "github.com/erazemk/rincon/web"
)

// DefaultPrefix is where the admin is mounted by the serve command.
const DefaultPrefix = "/admin"

// Options configures the admin router.
type Options struct {
	DB        *sql.DB
	Editor    *catalog.Editor
	ImagesDir string
	Prices    *price.Formatter
	// Prefix is the mount path. Redirects and links are built from it.
	Prefix         string
	SessionKey     []byte
	CSRFKey        []byte
	Secure         bool
	TrustedOrigins []string
}

// NewRouter creates the admin router with all page routes registered. The
// returned handler expects to be mounted at opts.Prefix.
func NewRouter(opts Options) (http.Handler, error) {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Prices == nil {
		opts.Prices = price.Default()
	}

	templates, err := LoadTemplates(FuncMap(opts.Prefix, opts.Prices))
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(opts.SessionKey)
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = opts.Prefix

	s := &Server{
		DB:        opts.DB,
		Editor:    opts.Editor,
		Templates: templates,
		Sessions:  store,
		ImagesDir: opts.ImagesDir,
		Prefix:    opts.Prefix,
	}

	protect := csrf.Protect(
		opts.CSRFKey,
		csrf.Secure(opts.Secure),
		csrf.Path(opts.Prefix),
		csrf.TrustedOrigins(opts.TrustedOrigins),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	r.Use(protect)

	// Static assets and uploaded covers.
	r.Handle("/static/*", http.StripPrefix(opts.Prefix+"/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	if opts.ImagesDir != "" {
		r.Handle("/images/*", http.StripPrefix(opts.Prefix+"/images/", http.FileServer(http.Dir(opts.ImagesDir))))
	}

	r.Get("/", s.BooksPage)
	r.Get("/books/new", s.BookNewPage)
	r.Post("/books", s.BookCreateSubmit)
	r.Get("/books/{id}", s.BookEditPage)
	r.Post("/books/{id}", s.BookUpdateSubmit)
	r.Post("/books/{id}/images", s.BookImagesSubmit)
	r.Post("/books/{id}/images/{index}/cover", s.BookImageCoverSubmit)
	r.Post("/books/{id}/images/{index}/remove", s.BookImageRemoveSubmit)

	r.Get("/export", s.ExportPage)
	r.Post("/export", s.ExportSubmit)
	r.Get("/exports", s.ExportsPage)
	r.Get("/exports/{id}", s.ExportDownload)

	return r, nil
}
