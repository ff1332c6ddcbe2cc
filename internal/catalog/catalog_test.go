package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/rincon/internal/model"
)

const sampleJSON = `[
  {"id": 1, "title": "Cien años de soledad", "author": "Gabriel García Márquez", "price": 45000, "status": "available"},
  {"id": 2, "title": "Rayuela", "author": "Julio Cortázar", "price": 38000, "status": "sold", "images": ["rayuela_1.jpg"]}
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeCatalog(t, sampleJSON)

	c, err := Load(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 books, got %d", c.Len())
	}
	b, ok := c.Find(2)
	if !ok {
		t.Fatal("expected book 2 to be found")
	}
	if b.Title != "Rayuela" {
		t.Errorf("expected title 'Rayuela', got %q", b.Title)
	}
	if _, ok := c.Find(99); ok {
		t.Error("expected book 99 to be missing")
	}
}

func TestLoadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleJSON))
	}))
	defer server.Close()

	c, err := Load(context.Background(), server.Client(), server.URL+"/books.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 books, got %d", c.Len())
	}
}

func TestLoadFailureLeavesCatalogEmpty(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	sources := []string{
		filepath.Join(t.TempDir(), "missing.json"),
		writeCatalog(t, `{"not": "an array"}`),
		server.URL + "/books.json",
	}

	for _, src := range sources {
		c, err := Load(context.Background(), server.Client(), src)
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Errorf("%s: expected *LoadError, got %v", src, err)
			continue
		}
		if loadErr.Source != src {
			t.Errorf("expected source %q, got %q", src, loadErr.Source)
		}
		if c == nil || c.Len() != 0 {
			t.Errorf("%s: expected empty catalog on failure", src)
		}
	}
}

func TestDuplicateIDsKeepFirst(t *testing.T) {
	c := New([]model.Book{
		{ID: 1, Title: "first"},
		{ID: 1, Title: "second"},
		{ID: 2, Title: "other"},
	})
	if c.Len() != 2 {
		t.Fatalf("expected 2 books, got %d", c.Len())
	}
	b, _ := c.Find(1)
	if b.Title != "first" {
		t.Errorf("expected first record to win, got %q", b.Title)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := New([]model.Book{{ID: 1, ImageList: []string{"a.jpg"}}})
	books := c.Clone()
	books[0].ImageList[0] = "changed.jpg"

	b, _ := c.Find(1)
	if b.ImageList[0] != "a.jpg" {
		t.Error("mutating a clone must not change the catalog")
	}
}

func newBook(title string) model.Book {
	return model.Book{Title: title, Author: "Anónimo", Price: 10000, Status: model.StatusAvailable}
}

func TestEditorAddAssignsTimestampID(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	e := NewEditor(nil)
	e.Now = func() time.Time { return fixed }

	first, err := e.Add(newBook("Uno"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID != fixed.UnixMilli() {
		t.Errorf("expected id %d, got %d", fixed.UnixMilli(), first.ID)
	}

	// Same clock value must not produce a duplicate id.
	second, err := e.Add(newBook("Dos"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected distinct ids for books added in the same millisecond")
	}

	books := e.Books()
	if len(books) != 2 || books[1].Title != "Dos" {
		t.Errorf("expected new books appended in order, got %+v", books)
	}
	if !e.Dirty() {
		t.Error("expected editor to be dirty after adding")
	}
}

func TestEditorUpdateReplacesInPlace(t *testing.T) {
	e := NewEditor([]model.Book{
		{ID: 1, Title: "Uno", Author: "A", Status: model.StatusAvailable},
		{ID: 2, Title: "Dos", Author: "B", Status: model.StatusAvailable},
	})

	updated := newBook("Dos (2a ed.)")
	updated.ID = 2
	updated.Status = model.StatusSold
	if err := e.Update(updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	books := e.Books()
	if books[1].Title != "Dos (2a ed.)" || books[1].Status != model.StatusSold {
		t.Errorf("expected book 2 replaced at same position, got %+v", books[1])
	}

	missing := newBook("Nada")
	missing.ID = 42
	if err := e.Update(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	invalid := newBook("")
	invalid.ID = 1
	var verr *model.ValidationError
	if err := e.Update(invalid); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEditorIsSeparateFromCatalog(t *testing.T) {
	c := New([]model.Book{{ID: 1, Title: "Uno", Author: "A", Status: model.StatusAvailable}})
	e := NewEditor(c.Clone())

	b, _ := e.Get(1)
	b.Title = "Editado"
	if err := e.Update(b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	orig, _ := c.Find(1)
	if orig.Title != "Uno" {
		t.Errorf("editing the admin copy must not change the browsing catalog, got %q", orig.Title)
	}
}

func TestEditorExport(t *testing.T) {
	e := NewEditor([]model.Book{{ID: 1, Title: "Crónica <de> una muerte", Author: "GGM", Status: "available"}})

	data, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n  {\n    \"id\": 1,") {
		t.Errorf("expected two-space indented array, got:\n%s", text)
	}
	if !strings.Contains(text, "<de>") {
		t.Error("expected HTML characters to be left unescaped")
	}

	var back []model.Book
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if e.Dirty() {
		t.Error("expected export to clear the dirty flag")
	}
}

func TestLoadRawKeepsSourceBytes(t *testing.T) {
	path := writeCatalog(t, sampleJSON)

	c, raw, err := LoadRaw(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if string(raw) != sampleJSON {
		t.Error("expected the source bytes unchanged")
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 books, got %d", c.Len())
	}
}
