// Package site generates the static catalog: the listing page, one preview
// page per book that social scrapers can read, the catalog file and
// optional social preview images.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/digest"
	"github.com/erazemk/rincon/internal/imaging"
	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/route"
	"github.com/erazemk/rincon/internal/search"
	"github.com/erazemk/rincon/internal/view"
	webembed "github.com/erazemk/rincon/web"
)

// Page variants.
const (
	// Redirect pages carry the book descriptors and forward visitors to the
	// listing page with the book's fragment.
	Redirect = "redirect"
	// Standalone pages embed the full detail view.
	Standalone = "standalone"
)

// Output names.
const (
	IndexFile   = "index.html"
	CatalogFile = "books.json"
	PreviewsDir = "previews"
	StaticDir   = "static"
)

// Options configures a build.
type Options struct {
	OutputDir string
	// ImagesDir holds the book image files. It is copied to images/ in the
	// output unless it already is that directory.
	ImagesDir string
	Variant   string
	Previews  bool
	View      view.Options
}

// Report lists what a build did. Paths are relative to the output dir.
type Report struct {
	Written   []string
	Unchanged []string
	Failed    map[string]error
	Previews  int
}

func (r *Report) fail(path string, err error) {
	slog.Error("failed to build file", "path", path, "error", err)
	r.Failed[path] = err
}

// Err returns an error when any file failed.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for path, err := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}
	return errors.Join(errs...)
}

// Builder renders catalogs into a directory.
type Builder struct {
	renderer *view.Renderer
	opts     Options
}

// New returns a builder. Unknown variants fall back to Redirect.
func New(renderer *view.Renderer, opts Options) *Builder {
	if opts.Variant != Standalone {
		opts.Variant = Redirect
	}
	return &Builder{renderer: renderer, opts: opts}
}

// Build writes the site for c. raw is the catalog file copied verbatim to
// the output. Files whose content did not change are not rewritten.
func (b *Builder) Build(ctx context.Context, c *catalog.Catalog, raw []byte) (*Report, error) {
	rep := &Report{Failed: make(map[string]error)}
	if err := os.MkdirAll(b.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	if err := b.copyStatic(rep); err != nil {
		return nil, err
	}
	if err := b.copyImages(rep); err != nil {
		return nil, err
	}
	b.write(rep, CatalogFile, raw)

	books := c.Books()
	details := make([]view.Detail, 0, len(books))
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		details = append(details, view.NewDetail(book, books, b.opts.View))

		d := meta.ForBook(b.opts.View.Site, b.opts.View.Prices, book)
		if b.opts.Previews {
			if url, ok := b.preview(rep, book); ok {
				d.Image = url
			}
		}
		b.writePage(rep, book, details[len(details)-1], d)
	}

	listing := view.NewListing(search.Filter(books, ""), false, b.opts.View)
	index := &view.Page{
		Site:    b.opts.View.Site,
		Head:    meta.NewHeadFor(meta.Defaults(b.opts.View.Site)),
		Listing: &listing,
		Details: details,
	}
	var buf bytes.Buffer
	if err := b.renderer.Render(&buf, view.PageListing, index); err != nil {
		return rep, fmt.Errorf("rendering index: %w", err)
	}
	b.write(rep, IndexFile, buf.Bytes())

	slog.Info("site built",
		"dir", b.opts.OutputDir,
		"books", len(books),
		"written", len(rep.Written),
		"unchanged", len(rep.Unchanged),
		"failed", len(rep.Failed),
		"variant", b.opts.Variant,
	)
	return rep, nil
}

func (b *Builder) writePage(rep *Report, book model.Book, detail view.Detail, d meta.Descriptors) {
	name := route.PagePath(book.ID)
	page := &view.Page{
		Site:   b.opts.View.Site,
		Head:   meta.NewHeadFor(d),
		Detail: &detail,
	}
	tmpl := view.PageItem
	if b.opts.Variant == Redirect {
		tmpl = view.PageRedirect
		page.RedirectURL = IndexFile + route.ToBook(book.ID).Fragment()
	}

	var buf bytes.Buffer
	if err := b.renderer.Render(&buf, tmpl, page); err != nil {
		rep.fail(name, err)
		return
	}
	b.write(rep, name, buf.Bytes())
}

// preview renders the social card for a book cover stored as a file. Books
// without a local cover keep the default descriptor image.
func (b *Builder) preview(rep *Report, book model.Book) (string, bool) {
	cover := book.Cover()
	if imaging.IsDataURI(cover) || cover == model.PlaceholderImage || b.opts.ImagesDir == "" {
		return "", false
	}
	f, err := os.Open(filepath.Join(b.opts.ImagesDir, filepath.Base(cover)))
	if err != nil {
		slog.Warn("cover not found, skipping preview", "id", book.ID, "cover", cover)
		return "", false
	}
	defer f.Close()

	name := filepath.ToSlash(filepath.Join(PreviewsDir, "item-"+strconv.FormatInt(book.ID, 10)+".jpg"))
	res, err := imaging.Preview(f)
	if err != nil {
		rep.fail(name, err)
		return "", false
	}
	if !b.write(rep, name, res.Data) {
		return "", false
	}
	rep.Previews++
	return b.opts.View.Site.URL(name), true
}

func (b *Builder) copyStatic(rep *Report) error {
	static := webembed.StaticFS()
	return fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return fmt.Errorf("reading static %s: %w", path, err)
		}
		b.write(rep, filepath.ToSlash(filepath.Join(StaticDir, path)), data)
		return nil
	})
}

func (b *Builder) copyImages(rep *Report) error {
	if b.opts.ImagesDir == "" {
		return nil
	}
	dst := filepath.Join(b.opts.OutputDir, view.ImagesDir)
	if same(b.opts.ImagesDir, dst) {
		return nil
	}
	src := os.DirFS(b.opts.ImagesDir)
	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return fmt.Errorf("reading image %s: %w", path, err)
		}
		b.write(rep, filepath.ToSlash(filepath.Join(view.ImagesDir, path)), data)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("images dir not found, skipping copy", "dir", b.opts.ImagesDir)
		return nil
	}
	return err
}

// write stores data at name under the output dir unless the file already
// holds the same content. It reports whether the file is now current.
func (b *Builder) write(rep *Report, name string, data []byte) bool {
	path := filepath.Join(b.opts.OutputDir, filepath.FromSlash(name))
	if existing, err := os.ReadFile(path); err == nil && digest.Sum(existing) == digest.Sum(data) {
		rep.Unchanged = append(rep.Unchanged, name)
		return true
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		rep.fail(name, err)
		return false
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		rep.fail(name, err)
		return false
	}
	rep.Written = append(rep.Written, name)
	return true
}

func same(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
