package site

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/view"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]model.Book{
		{ID: 1, Title: "Rayuela", Author: "Julio Cortázar", Genre: "Novela", Status: model.StatusAvailable, Price: 30000, ImageList: []string{"rayuela.jpg"}},
		{ID: 2, Title: `El "Aleph"`, Author: "Jorge Luis Borges", Status: model.StatusSold, Price: 25000},
	})
}

func viewOptions() view.Options {
	site := meta.DefaultSite()
	site.BaseURL = "https://rincon.example"
	return view.Options{Site: site}
}

func newBuilder(t *testing.T, opts Options) *Builder {
	t.Helper()
	r, err := view.NewRenderer()
	require.NoError(t, err)
	opts.View = viewOptions()
	return New(r, opts)
}

func readDoc(t *testing.T, path string) *goquery.Document {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func writeCover(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 90))
	for x := 0; x < 60; x++ {
		for y := 0; y < 90; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644))
}

func TestBuildRedirectVariant(t *testing.T) {
	out := t.TempDir()
	b := newBuilder(t, Options{OutputDir: out, Variant: Redirect})

	rep, err := b.Build(context.Background(), testCatalog(), []byte("[]"))
	require.NoError(t, err)
	require.NoError(t, rep.Err())

	assert.Contains(t, rep.Written, IndexFile)
	assert.Contains(t, rep.Written, "item-1.html")
	assert.Contains(t, rep.Written, "item-2.html")
	assert.Contains(t, rep.Written, CatalogFile)
	assert.Contains(t, rep.Written, "static/style.css")

	doc := readDoc(t, filepath.Join(out, "item-2.html"))
	refresh, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	assert.Equal(t, "0; url=index.html#item/2", refresh)
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	assert.Equal(t, `El "Aleph" - El Rincón del Lector`, title)
	url, _ := doc.Find(`meta[property="og:url"]`).Attr("content")
	assert.Equal(t, "https://rincon.example/item-2.html", url)

	index := readDoc(t, filepath.Join(out, IndexFile))
	assert.Equal(t, 2, index.Find(".book-card").Length())
	assert.Equal(t, 1, index.Find(`section[id="item/1"]`).Length())

	raw, err := os.ReadFile(filepath.Join(out, CatalogFile))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestBuildStandaloneVariant(t *testing.T) {
	out := t.TempDir()
	b := newBuilder(t, Options{OutputDir: out, Variant: Standalone})

	_, err := b.Build(context.Background(), testCatalog(), []byte("[]"))
	require.NoError(t, err)

	doc := readDoc(t, filepath.Join(out, "item-1.html"))
	assert.Equal(t, 0, doc.Find(`meta[http-equiv="refresh"]`).Length())
	assert.Equal(t, "Rayuela", doc.Find(".book-detail__title").Text())
	assert.Equal(t, "Rayuela - El Rincón del Lector", doc.Find("title").Text())
}

func TestBuildSkipsUnchangedFiles(t *testing.T) {
	out := t.TempDir()
	b := newBuilder(t, Options{OutputDir: out})

	first, err := b.Build(context.Background(), testCatalog(), []byte("[]"))
	require.NoError(t, err)
	require.NotEmpty(t, first.Written)

	second, err := b.Build(context.Background(), testCatalog(), []byte("[]"))
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.ElementsMatch(t, first.Written, second.Unchanged)

	changed := catalog.New(append(testCatalog().Clone(), model.Book{ID: 3, Title: "Nuevo", Status: model.StatusAvailable}))
	third, err := b.Build(context.Background(), changed, []byte("[]"))
	require.NoError(t, err)
	assert.Contains(t, third.Written, "item-3.html")
	assert.Contains(t, third.Written, IndexFile)
	assert.Contains(t, third.Unchanged, "item-2.html")
}

func TestBuildPreviewsAndImages(t *testing.T) {
	images := filepath.Join(t.TempDir(), "images")
	writeCover(t, images, "rayuela.jpg")
	out := t.TempDir()

	b := newBuilder(t, Options{OutputDir: out, ImagesDir: images, Previews: true})
	rep, err := b.Build(context.Background(), testCatalog(), []byte("[]"))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Previews, "only book 1 has a cover file")
	assert.Contains(t, rep.Written, "images/rayuela.jpg")
	assert.FileExists(t, filepath.Join(out, PreviewsDir, "item-1.jpg"))

	doc := readDoc(t, filepath.Join(out, "item-1.html"))
	img, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	assert.Equal(t, "https://rincon.example/previews/item-1.jpg", img)

	doc = readDoc(t, filepath.Join(out, "item-2.html"))
	img, _ = doc.Find(`meta[property="og:image"]`).Attr("content")
	assert.True(t, strings.HasSuffix(img, "/images/"+model.PlaceholderImage), img)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBuilder(t, Options{OutputDir: t.TempDir()})
	_, err := b.Build(ctx, testCatalog(), []byte("[]"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShareURLs(t *testing.T) {
	urls := ShareURLs(viewOptions().Site, testCatalog().IDs())
	assert.Equal(t, []string{"https://rincon.example/item-1.html", "https://rincon.example/item-2.html"}, urls)

	var buf bytes.Buffer
	require.NoError(t, WriteURLs(&buf, urls))
	assert.Equal(t, "https://rincon.example/item-1.html https://rincon.example/item-2.html", buf.String())

	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, SaveURLs(path, urls))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}
