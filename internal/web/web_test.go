package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/db"
	"github.com/erazemk/rincon/internal/model"
)

type testAdmin struct {
	server    *httptest.Server
	client    *http.Client
	editor    *catalog.Editor
	imagesDir string
}

func setupTestAdmin(t *testing.T) *testAdmin {
	t.Helper()

	editor := catalog.NewEditor([]model.Book{
		{ID: 1, Title: "Rayuela", Author: "Julio Cortázar", Genre: "Novela", Price: 30000, Status: model.StatusAvailable, ISBN: "S/I", Defects: "Ninguno"},
		{ID: 2, Title: "Ficciones", Author: "Jorge Luis Borges", Genre: "Cuento", Price: 25000, Status: model.StatusSold},
	})
	imagesDir := t.TempDir()

	handler, err := NewRouter(Options{
		DB:         db.NewTestDB(t),
		Editor:     editor,
		ImagesDir:  imagesDir,
		Prefix:     DefaultPrefix,
		SessionKey: bytes.Repeat([]byte("s"), 32),
		CSRFKey:    bytes.Repeat([]byte("c"), 32),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	root := chi.NewRouter()
	root.Mount(DefaultPrefix, handler)
	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	jar, _ := cookiejar.New(nil)
	return &testAdmin{
		server:    server,
		client:    &http.Client{Jar: jar},
		editor:    editor,
		imagesDir: imagesDir,
	}
}

func (a *testAdmin) url(path string) string {
	return a.server.URL + DefaultPrefix + path
}

// page fetches an admin page and parses it.
func (a *testAdmin) page(t *testing.T, path string) *goquery.Document {
	t.Helper()
	resp, err := a.client.Get(a.url(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return doc
}

// token reads the CSRF token from the form on path.
func (a *testAdmin) token(t *testing.T, path string) string {
	t.Helper()
	token, ok := a.page(t, path).Find(`input[name="gorilla.csrf.Token"]`).First().Attr("value")
	if !ok || token == "" {
		t.Fatalf("no CSRF token on %s", path)
	}
	return token
}

func (a *testAdmin) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, a.url(path), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", a.server.URL+DefaultPrefix+"/")
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func bookForm(token string, overrides map[string]string) url.Values {
	form := url.Values{
		"gorilla.csrf.Token": {token},
		"title":              {"Pedro Páramo"},
		"author":             {"Juan Rulfo"},
		"price":              {"20000"},
		"discountPrice":      {"0"},
		"status":             {"available"},
		"condition":          {model.ConditionGood},
		"genre":              {"Novela"},
		"pages":              {"124"},
	}
	for k, v := range overrides {
		form.Set(k, v)
	}
	return form
}

func TestBooksPageSearch(t *testing.T) {
	a := setupTestAdmin(t)

	doc := a.page(t, "/")
	if n := doc.Find("tr.book-row").Length(); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	doc = a.page(t, "/?q=rayuela")
	if n := doc.Find("tr.book-row").Length(); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
	if got := doc.Find(".search-info").Text(); got != `Se encontraron 1 resultado para "rayuela"` {
		t.Errorf("unexpected summary %q", got)
	}
	if src, _ := doc.Find("tr.book-row img").Attr("src"); src != "/admin/images/placeholder.jpg" {
		t.Errorf("unexpected cover src %q", src)
	}

	doc = a.page(t, "/?q=zzz")
	if doc.Find(".no-results").Length() != 1 {
		t.Error("expected a no results message")
	}
}

func TestNewBookFormDefaults(t *testing.T) {
	a := setupTestAdmin(t)

	doc := a.page(t, "/books/new")
	if v, _ := doc.Find("#isbn").Attr("value"); v != "S/I" {
		t.Errorf("expected ISBN default S/I, got %q", v)
	}
	if v := doc.Find("#defects").Text(); v != "Ninguno" {
		t.Errorf("expected defects default Ninguno, got %q", v)
	}
	if v, _ := doc.Find("#status option[selected]").Attr("value"); v != "available" {
		t.Errorf("expected available preselected, got %q", v)
	}
}

func TestCreateBook(t *testing.T) {
	a := setupTestAdmin(t)
	token := a.token(t, "/books/new")

	resp := a.post(t, "/books", bookForm(token, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected redirect to the edit page, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Request.URL.Path, "/admin/books/") {
		t.Errorf("expected to land on the edit page, got %s", resp.Request.URL.Path)
	}

	books := a.editor.Books()
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}
	created := books[2]
	if created.Title != "Pedro Páramo" || created.Pages != 124 {
		t.Errorf("unexpected book %+v", created)
	}
	if created.ISBN != model.DefaultISBN || created.Defects != model.DefaultDefects {
		t.Errorf("expected blank ISBN and defects to take defaults, got %q and %q", created.ISBN, created.Defects)
	}
	if !a.editor.Dirty() {
		t.Error("expected unexported changes")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !strings.Contains(doc.Find(".flash--success").Text(), "añadido") {
		t.Error("expected a success flash after adding")
	}
	if doc.Find(".admin-notice").Length() != 1 {
		t.Error("expected the unexported changes notice")
	}
}

func TestCreateBookValidation(t *testing.T) {
	a := setupTestAdmin(t)
	token := a.token(t, "/books/new")

	resp := a.post(t, "/books", bookForm(token, map[string]string{"title": "  "}))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Título") {
		t.Error("expected the invalid field to be named")
	}
	if len(a.editor.Books()) != 2 {
		t.Error("invalid book must not be added")
	}
}

func TestUpdateBook(t *testing.T) {
	a := setupTestAdmin(t)
	token := a.token(t, "/books/1")

	resp := a.post(t, "/books/1", bookForm(token, map[string]string{
		"title":  "Rayuela",
		"author": "Julio Cortázar",
		"status": "sold",
		"series": "cortazar",
	}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", resp.StatusCode)
	}

	b, err := a.editor.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.Status != model.StatusSold || b.SeriesID != "cortazar" {
		t.Errorf("unexpected book after update %+v", b)
	}

	resp = a.post(t, "/books/99", bookForm(token, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown book, got %d", resp.StatusCode)
	}
}

func TestPostWithoutTokenRejected(t *testing.T) {
	a := setupTestAdmin(t)

	resp := a.post(t, "/books", bookForm("", nil))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 without a CSRF token, got %d", resp.StatusCode)
	}
	if len(a.editor.Books()) != 2 {
		t.Error("rejected request must not add a book")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{0x5D, 0x40, 0x37, 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func (a *testAdmin) upload(t *testing.T, path, token string, files map[string][]byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		part.Write(data)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, a.url(path), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Referer", a.server.URL+DefaultPrefix+"/")
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestImageUpload(t *testing.T) {
	a := setupTestAdmin(t)
	token := a.token(t, "/books/1")

	resp := a.upload(t, "/books/1/images", token, map[string][]byte{"portada.png": pngBytes(t)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", resp.StatusCode)
	}

	b, _ := a.editor.Get(1)
	if len(b.ImageList) != 1 || b.ImageList[0] != "rayuela_julio-cortazar_1.jpg" {
		t.Fatalf("unexpected images %v", b.ImageList)
	}
	data, err := os.ReadFile(filepath.Join(a.imagesDir, b.ImageList[0]))
	if err != nil {
		t.Fatalf("reading stored cover: %v", err)
	}
	if http.DetectContentType(data) != "image/jpeg" {
		t.Errorf("expected stored cover to be JPEG, got %s", http.DetectContentType(data))
	}

	// The stored cover is served back to the admin pages.
	doc := a.page(t, "/books/1")
	src, _ := doc.Find("#images-preview img").First().Attr("src")
	if src != "/admin/images/rayuela_julio-cortazar_1.jpg" {
		t.Errorf("unexpected preview src %q", src)
	}
	img, err := a.client.Get(a.server.URL + src)
	if err != nil {
		t.Fatalf("GET cover: %v", err)
	}
	img.Body.Close()
	if img.StatusCode != http.StatusOK {
		t.Errorf("expected cover to be served, got %d", img.StatusCode)
	}
}

func TestImageUploadRejectsNonImages(t *testing.T) {
	a := setupTestAdmin(t)
	token := a.token(t, "/books/1")

	resp := a.upload(t, "/books/1/images", token, map[string][]byte{"notes.png": []byte("plain text")})
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "unsupported image format") {
		t.Error("expected an error flash for a non-image upload")
	}
	b, _ := a.editor.Get(1)
	if len(b.ImageList) != 0 {
		t.Errorf("expected no images, got %v", b.ImageList)
	}
}

func TestImageLimit(t *testing.T) {
	a := setupTestAdmin(t)

	b, _ := a.editor.Get(1)
	b.ImageList = []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	if err := a.editor.Update(b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	token := a.token(t, "/books/2")
	resp := a.upload(t, "/books/1/images", token, map[string][]byte{"f.png": pngBytes(t)})
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "hasta 5 imágenes") {
		t.Error("expected the image limit message")
	}
	b, _ = a.editor.Get(1)
	if len(b.ImageList) != model.MaxImages {
		t.Errorf("expected %d images, got %d", model.MaxImages, len(b.ImageList))
	}
}

func TestImageReorderAndRemove(t *testing.T) {
	a := setupTestAdmin(t)

	b, _ := a.editor.Get(1)
	b.ImageList = []string{"a.jpg", "b.jpg", "c.jpg"}
	if err := a.editor.Update(b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	token := a.token(t, "/books/1")

	a.post(t, "/books/1/images/2/cover", url.Values{"gorilla.csrf.Token": {token}})
	b, _ = a.editor.Get(1)
	if strings.Join(b.ImageList, ",") != "c.jpg,a.jpg,b.jpg" {
		t.Errorf("unexpected order after choosing cover: %v", b.ImageList)
	}

	a.post(t, "/books/1/images/1/remove", url.Values{"gorilla.csrf.Token": {token}})
	b, _ = a.editor.Get(1)
	if strings.Join(b.ImageList, ",") != "c.jpg,b.jpg" {
		t.Errorf("unexpected images after removal: %v", b.ImageList)
	}

	resp := a.post(t, "/books/1/images/9/remove", url.Values{"gorilla.csrf.Token": {token}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an out of range index, got %d", resp.StatusCode)
	}
}

func TestExportFlow(t *testing.T) {
	a := setupTestAdmin(t)

	doc := a.page(t, "/export")
	expected, err := catalog.Encode(a.editor.Books())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := doc.Find("#json-output").Text(); got != string(expected) {
		t.Errorf("export text does not match the catalog encoding:\n%s", got)
	}

	token := a.token(t, "/export")
	resp := a.post(t, "/export", url.Values{"gorilla.csrf.Token": {token}, "note": {"primera"}})
	if resp.Request.URL.Path != "/admin/exports" {
		t.Fatalf("expected redirect to history, got %s", resp.Request.URL.Path)
	}

	doc, err = goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parsing history: %v", err)
	}
	rows := doc.Find("#export-table tbody tr")
	if rows.Length() != 1 {
		t.Fatalf("expected 1 export, got %d", rows.Length())
	}
	if !strings.Contains(rows.Text(), "primera") {
		t.Error("expected the note in the history")
	}

	href, _ := rows.Find("a.download-link").Attr("href")
	dl, err := a.client.Get(a.server.URL + href)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	data, _ := io.ReadAll(dl.Body)
	if string(data) != string(expected) {
		t.Error("downloaded export does not match the catalog")
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="books-`) {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	missing, err := a.client.Get(a.url("/exports/does-not-exist"))
	if err != nil {
		t.Fatalf("GET missing export: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", missing.StatusCode)
	}
}
