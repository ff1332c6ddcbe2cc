// Package catalog holds the in-memory book catalog and the separate editable
// copy used by the admin surface.
package catalog

import (
	"errors"
	"log/slog"

	"github.com/erazemk/rincon/internal/model"
)

// ErrNotFound is returned when no book has the requested id.
var ErrNotFound = errors.New("book not found")

// Catalog is a read-only list of books loaded once per session.
// Order is the order of the source file.
type Catalog struct {
	books []model.Book
	index map[int64]int
}

// New builds a catalog from books. When two records share an id the first
// one wins and the duplicate is dropped.
func New(books []model.Book) *Catalog {
	c := &Catalog{
		books: make([]model.Book, 0, len(books)),
		index: make(map[int64]int, len(books)),
	}
	for _, b := range books {
		if _, dup := c.index[b.ID]; dup {
			slog.Warn("duplicate book id in catalog, keeping first", "id", b.ID, "title", b.Title)
			continue
		}
		c.index[b.ID] = len(c.books)
		c.books = append(c.books, cloneBook(b))
	}
	return c
}

// Empty returns a catalog without books.
func Empty() *Catalog {
	return New(nil)
}

// Len returns the number of books.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.books)
}

// Books returns the books in catalog order. The slice must not be modified.
func (c *Catalog) Books() []model.Book {
	if c == nil {
		return nil
	}
	return c.books
}

// Find returns the book with the given id.
func (c *Catalog) Find(id int64) (model.Book, bool) {
	if c == nil {
		return model.Book{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return model.Book{}, false
	}
	return c.books[i], true
}

// Has reports whether a book with the given id exists.
func (c *Catalog) Has(id int64) bool {
	_, ok := c.Find(id)
	return ok
}

// IDs returns all book ids in catalog order.
func (c *Catalog) IDs() []int64 {
	ids := make([]int64, 0, c.Len())
	for _, b := range c.Books() {
		ids = append(ids, b.ID)
	}
	return ids
}

// Clone returns a deep copy of the books, safe to mutate.
func (c *Catalog) Clone() []model.Book {
	out := make([]model.Book, 0, c.Len())
	for _, b := range c.Books() {
		out = append(out, cloneBook(b))
	}
	return out
}

func cloneBook(b model.Book) model.Book {
	if b.ImageList != nil {
		b.ImageList = append([]string(nil), b.ImageList...)
	}
	return b
}
