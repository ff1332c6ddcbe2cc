package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/rincon/internal/model"
)

// Editor is the admin's mutable copy of the catalog. Changes stay in memory
// until the operator exports them and replaces the source file by hand.
type Editor struct {
	mu    sync.RWMutex
	books []model.Book
	dirty bool

	// Now is the clock used to mint ids for new books.
	Now func() time.Time
}

// NewEditor creates an editor over a private copy of books.
func NewEditor(books []model.Book) *Editor {
	own := make([]model.Book, 0, len(books))
	for _, b := range books {
		own = append(own, cloneBook(b))
	}
	return &Editor{books: own, Now: time.Now}
}

// Books returns a copy of the edited books in order.
func (e *Editor) Books() []model.Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.Book, 0, len(e.books))
	for _, b := range e.books {
		out = append(out, cloneBook(b))
	}
	return out
}

// Snapshot returns the current state as a read-only catalog.
func (e *Editor) Snapshot() *Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return New(e.books)
}

// Dirty reports whether books changed since the last export.
func (e *Editor) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// Get returns the book with the given id.
func (e *Editor) Get(id int64) (model.Book, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexOf(id)
	if i < 0 {
		return model.Book{}, ErrNotFound
	}
	return cloneBook(e.books[i]), nil
}

// Add appends a new book with a fresh timestamp-based id.
func (e *Editor) Add(b model.Book) (model.Book, error) {
	if err := b.Validate(); err != nil {
		return model.Book{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.Now().UnixMilli()
	for e.indexOf(id) >= 0 {
		id++
	}
	b.ID = id
	e.books = append(e.books, cloneBook(b))
	e.dirty = true
	return b, nil
}

// Update replaces the book with the same id in place.
func (e *Editor) Update(b model.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(b.ID)
	if i < 0 {
		return fmt.Errorf("updating book %d: %w", b.ID, ErrNotFound)
	}
	e.books[i] = cloneBook(b)
	e.dirty = true
	return nil
}

// Export returns the catalog as indented JSON text and clears the dirty flag.
func (e *Editor) Export() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := Encode(e.books)
	if err != nil {
		return nil, err
	}
	e.dirty = false
	return data, nil
}

// Encode formats books the way the catalog file is stored: two-space
// indentation, no HTML escaping.
func Encode(books []model.Book) ([]byte, error) {
	if books == nil {
		books = []model.Book{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(books); err != nil {
		return nil, fmt.Errorf("encoding books: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (e *Editor) indexOf(id int64) int {
	for i := range e.books {
		if e.books[i].ID == id {
			return i
		}
	}
	return -1
}
