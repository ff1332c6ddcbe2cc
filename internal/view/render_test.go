package view

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/search"
)

func render(t *testing.T, name string, page *Page) *goquery.Document {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, page))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestRenderListing(t *testing.T) {
	opts := testOptions()
	b := book()
	listing := NewListing(search.Filter([]model.Book{b}, ""), false, opts)
	page := &Page{
		Site:    opts.Site,
		Head:    meta.NewHeadFor(meta.Defaults(opts.Site)),
		Listing: &listing,
		Details: []Detail{NewDetail(b, []model.Book{b}, opts)},
	}

	doc := render(t, PageListing, page)

	assert.Equal(t, opts.Site.DocumentTitle, doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find(".book-card").Length())
	assert.Equal(t, "#item/7", doc.Find(".book-card a").AttrOr("href", ""))
	assert.Equal(t, 1, doc.Find(`section[id="item/7"]`).Length())
	og, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	assert.Equal(t, opts.Site.Title, og)
}

func TestRenderItemEscapesDescriptors(t *testing.T) {
	opts := testOptions()
	b := book()
	b.Description = `Dice "hola" <b>fuerte</b>`
	d := NewDetail(b, []model.Book{b}, opts)
	desc := meta.ForBook(opts.Site, opts.Prices, b)

	doc := render(t, PageItem, &Page{Site: opts.Site, Head: meta.NewHeadFor(desc), Detail: &d})

	got, ok := doc.Find(`meta[name="twitter:description"]`).Attr("content")
	require.True(t, ok)
	assert.Equal(t, desc.Description, got)
	assert.Equal(t, "El Aleph", doc.Find(".book-detail__title").Text())
	assert.Equal(t, 0, doc.Find(".book-detail__defects").Length())
}

func TestRenderRedirect(t *testing.T) {
	opts := testOptions()
	b := book()
	d := NewDetail(b, []model.Book{b}, opts)
	page := &Page{
		Site:        opts.Site,
		Head:        meta.NewHeadFor(meta.ForBook(opts.Site, opts.Prices, b)),
		Detail:      &d,
		RedirectURL: "index.html#item/7",
	}

	doc := render(t, PageRedirect, page)

	refresh, ok := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	require.True(t, ok)
	assert.Equal(t, "0; url=index.html#item/7", refresh)
	assert.Equal(t, "index.html#item/7", doc.Find(".redirect-notice a").AttrOr("href", ""))
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "nope", &Page{}))
}

func TestRenderCoversFallBackToPlaceholder(t *testing.T) {
	opts := testOptions()
	b := book()
	b.ImageList = []string{"missing.jpg"}
	b.SeriesID = "aleph"
	b.VolumeNumber = 1
	other := book()
	other.ID = 8
	other.SeriesID = "aleph"
	other.VolumeNumber = 2
	books := []model.Book{b, other}

	listing := NewListing(search.Filter(books, ""), false, opts)
	page := &Page{
		Site:    opts.Site,
		Head:    meta.NewHeadFor(meta.Defaults(opts.Site)),
		Listing: &listing,
		Details: []Detail{NewDetail(b, books, opts)},
	}

	doc := render(t, PageListing, page)

	const fallback = "this.onerror=null;this.src='images/placeholder.jpg'"
	for _, sel := range []string{".book-card__image", ".book-detail__cover", ".related-book__image"} {
		imgs := doc.Find(sel)
		require.NotZero(t, imgs.Length(), sel)
		imgs.Each(func(_ int, img *goquery.Selection) {
			assert.Equal(t, fallback, img.AttrOr("onerror", ""), sel)
		})
	}
	assert.Equal(t, "images/missing.jpg", doc.Find(".book-card__image").First().AttrOr("src", ""))
}
