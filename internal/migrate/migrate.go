// Package migrate moves images embedded in the catalog as base64 data URIs
// into image files and rewrites the catalog to reference them.
package migrate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/imaging"
	"github.com/erazemk/rincon/internal/model"
)

// Entry records one extracted image.
type Entry struct {
	BookID   int64
	Title    string
	FileName string
	Size     int
}

// Failure records an image that could not be extracted. The original data
// URI is kept in the catalog.
type Failure struct {
	BookID int64
	Index  int
	Err    error
}

// Result is the outcome of a migration.
type Result struct {
	Books    []model.Book
	Entries  []Entry
	Failures []Failure
	// BooksWithImages counts books that had at least one data URI.
	BooksWithImages int
}

// Options configures Run.
type Options struct {
	CatalogPath  string
	ImagesDir    string
	BackupSuffix string
	LogFile      string
}

// Extract writes every data URI image of books into dir and returns the
// books with the references replaced by file names. Images are numbered per
// book in order of appearance: <title>_<author>_<n>.<ext>.
func Extract(ctx context.Context, books []model.Book, dir string) (*Result, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating images dir: %w", err)
	}

	res := &Result{Books: make([]model.Book, 0, len(books))}
	for _, b := range books {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Books = append(res.Books, extractBook(b, dir, res))
	}
	return res, nil
}

func extractBook(b model.Book, dir string, res *Result) model.Book {
	refs := b.ImageList
	legacy := false
	if len(refs) == 0 && imaging.IsDataURI(b.ImageFile) {
		refs = []string{b.ImageFile}
		legacy = true
	}

	base := BaseName(b.Title, b.Author)
	out := make([]string, len(refs))
	n := 0
	for i, ref := range refs {
		out[i] = ref
		if !imaging.IsDataURI(ref) {
			continue
		}
		n++
		d, err := imaging.DecodeDataURI(ref)
		if err != nil {
			res.Failures = append(res.Failures, Failure{BookID: b.ID, Index: n, Err: err})
			slog.Warn("failed to decode embedded image", "id", b.ID, "index", n, "error", err)
			continue
		}
		name := fmt.Sprintf("%s_%d.%s", base, n, d.Ext)
		if err := os.WriteFile(filepath.Join(dir, name), d.Data, 0644); err != nil {
			res.Failures = append(res.Failures, Failure{BookID: b.ID, Index: n, Err: err})
			slog.Error("failed to write image", "id", b.ID, "file", name, "error", err)
			continue
		}
		out[i] = name
		res.Entries = append(res.Entries, Entry{BookID: b.ID, Title: b.Title, FileName: name, Size: len(d.Data)})
	}
	if n == 0 {
		return b
	}
	res.BooksWithImages++
	slog.Info("extracted embedded images", "id", b.ID, "title", b.Title, "count", n)

	if legacy {
		b.ImageFile = out[0]
		return b
	}
	b.ImageList = out
	return b
}

// Run migrates the catalog file in place. The original file is kept next to
// it with BackupSuffix inserted before the extension, and the extraction log
// is written to LogFile when set.
func Run(ctx context.Context, opts Options) (*Result, error) {
	raw, err := os.ReadFile(opts.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	books, err := catalog.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	backup := BackupPath(opts.CatalogPath, opts.BackupSuffix)
	if err := os.WriteFile(backup, raw, 0644); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}
	slog.Info("catalog backup written", "path", backup)

	res, err := Extract(ctx, books, opts.ImagesDir)
	if err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		slog.Info("no embedded images found", "books", len(books))
		return res, nil
	}

	data, err := catalog.Encode(res.Books)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(opts.CatalogPath, data, 0644); err != nil {
		return nil, fmt.Errorf("writing catalog: %w", err)
	}

	if opts.LogFile != "" {
		if err := writeLog(opts.LogFile, res); err != nil {
			return nil, err
		}
	}
	slog.Info("image migration finished",
		"books", res.BooksWithImages,
		"images", len(res.Entries),
		"failed", len(res.Failures),
	)
	return res, nil
}

// BackupPath inserts suffix before the extension: books.json becomes
// books.backup.json.
func BackupPath(path, suffix string) string {
	if suffix == "" {
		suffix = ".backup"
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func writeLog(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating migration log: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Imágenes extraídas: %d de %d libros\n\n", len(res.Entries), res.BooksWithImages)
	for _, e := range res.Entries {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%.2f KB\n", e.BookID, e.Title, e.FileName, float64(e.Size)/1024)
	}
	for _, fail := range res.Failures {
		fmt.Fprintf(w, "ERROR #%d imagen %d: %v\n", fail.BookID, fail.Index, fail.Err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing migration log: %w", err)
	}
	return f.Close()
}
