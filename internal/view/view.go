// Package view builds the view models the catalog templates render. All
// functions are pure: they read books and return values.
package view

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/erazemk/rincon/internal/meta"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/price"
	"github.com/erazemk/rincon/internal/route"
	"github.com/erazemk/rincon/internal/search"
	"github.com/erazemk/rincon/internal/series"
)

// Messages shown in place of the grid.
const (
	NoResultsMessage  = "No se encontraron libros para tu búsqueda."
	LoadFailedMessage = "No se pudieron cargar los libros. Intente recargar la página."
)

// ImagesDir is where image files are served from, relative to the pages.
const ImagesDir = "images"

// Options carries the site-wide inputs of the view models.
type Options struct {
	Site   meta.Site
	Prices *price.Formatter
}

func (o Options) prices() *price.Formatter {
	if o.Prices == nil {
		return price.Default()
	}
	return o.Prices
}

// Image is one rendered image reference.
type Image struct {
	Src    template.URL
	Alt    string
	Index  int
	Active bool
}

// ImageSrc maps an image reference to a src attribute. Inline image data
// URIs and absolute http(s) URLs are used as-is, anything else resolves as a
// file name under ImagesDir.
func ImageSrc(ref string) template.URL {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "./")
	switch {
	case ref == "":
		return template.URL(ImagesDir + "/" + model.PlaceholderImage)
	case strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, ImagesDir+"/"):
		return template.URL(ref)
	default:
		return template.URL(ImagesDir + "/" + ref)
	}
}

// Price is the rendered price block.
type Price struct {
	Original    string
	Current     string
	HasDiscount bool
	PromoTag    string
}

// NewPrice renders the price block of a book.
func NewPrice(b model.Book, prices *price.Formatter) Price {
	return Price{
		Original:    prices.Format(b.Price),
		Current:     prices.Format(b.EffectivePrice()),
		HasDiscount: b.HasDiscount(),
		PromoTag:    strings.TrimSpace(b.PromoTag),
	}
}

// Status is a status badge.
type Status struct {
	Class string
	Text  string
}

func cardStatus(b model.Book) Status {
	if b.IsAvailable() {
		return Status{Class: "status-badge--available", Text: "Disponible"}
	}
	return Status{Class: "status-badge--sold", Text: "Agotado"}
}

func detailStatus(b model.Book) Status {
	if b.IsAvailable() {
		return Status{Class: "status-badge--available", Text: "Disponible"}
	}
	return Status{Class: "status-badge--sold", Text: "Vendido"}
}

// Card is one book in the listing grid.
type Card struct {
	ID        int64
	Href      string
	Title     string
	Author    string
	Genre     string
	Condition string
	Cover     Image
	Status    Status
	InSeries  bool
	Price     Price
}

// NewCard builds the listing card for a book.
func NewCard(b model.Book, opts Options) Card {
	return Card{
		ID:        b.ID,
		Href:      route.ToBook(b.ID).Fragment(),
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Condition: b.Condition,
		Cover:     Image{Src: ImageSrc(b.Cover()), Alt: "Portada de " + b.Title, Active: true},
		Status:    cardStatus(b),
		InSeries:  b.InSeries(),
		Price:     NewPrice(b, opts.prices()),
	}
}

// Listing is the grid view.
type Listing struct {
	Query   string
	Cards   []Card
	Message string
}

// NewListing builds the grid for a filter result. loadFailed replaces the
// grid with the load failure message.
func NewListing(res search.Result, loadFailed bool, opts Options) Listing {
	l := Listing{Query: res.Query}
	if loadFailed {
		l.Message = LoadFailedMessage
		return l
	}
	l.Cards = make([]Card, 0, len(res.Books))
	for _, b := range res.Books {
		l.Cards = append(l.Cards, NewCard(b, opts))
	}
	if len(l.Cards) == 0 {
		l.Message = NoResultsMessage
	}
	return l
}

// Field is one labelled entry in the detail meta list.
type Field struct {
	Label string
	Value string
}

// Banner is the series completeness notice.
type Banner struct {
	Heading     string
	Requirement string
	Message     string
	Success     bool
}

// NewBanner renders the notice for a series. It returns nil when no notice
// is shown.
func NewBanner(info series.Info) *Banner {
	if !info.ShowBanner() {
		return nil
	}
	b := &Banner{
		Heading:     fmt.Sprintf("Obra en %d volúmenes", info.Total),
		Requirement: fmt.Sprintf("Esta obra requiere %d %s para estar completa.", info.Total, plural(info.Total, "libro", "libros")),
	}
	switch info.Completeness {
	case series.MissingFromCatalog:
		b.Message = fmt.Sprintf("⚠️ Solo %d de %d volúmenes registrados. %d disponibles para la venta", info.Present, info.Total, info.Available)
	case series.IncompleteAvailable:
		b.Message = fmt.Sprintf("⚠️ Solo %d de %d volúmenes disponibles", info.Available, info.Total)
	default:
		b.Message = "✅ Todos los volúmenes están disponibles"
		b.Success = true
	}
	return b
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Related is one entry of the "other volumes" list.
type Related struct {
	ID     int64
	Href   string
	Title  string
	Volume int
	Cover  Image
	Price  string
	Status Status
}

// Detail is the single-book view.
type Detail struct {
	ID          int64
	Title       string
	Author      string
	Cover       Image
	Gallery     []Image
	Fields      []Field
	Defects     string
	Description template.HTML
	Banner      *Banner
	Related     []Related
	Price       Price
	Status      Status
	FacebookURL string
	ShareURL    string
	Fragment    string
}

// NewDetail builds the detail view for a book. books is the whole catalog
// and is used to resolve the series.
func NewDetail(b model.Book, books []model.Book, opts Options) Detail {
	prices := opts.prices()
	info := series.Resolve(b, books)

	d := Detail{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Cover:       Image{Src: ImageSrc(b.Cover()), Alt: "Portada de " + b.Title, Active: true},
		Gallery:     Gallery(b),
		Fields:      Fields(b),
		Description: Markup(b.Description),
		Banner:      NewBanner(info),
		Price:       NewPrice(b, prices),
		Status:      detailStatus(b),
		FacebookURL: strings.TrimSpace(b.FacebookURL),
		ShareURL:    opts.Site.ShareURL(b.ID),
		Fragment:    route.ToBook(b.ID).Fragment(),
	}
	if b.HasDefects() {
		d.Defects = b.Defects
	}
	for _, r := range info.Related {
		d.Related = append(d.Related, Related{
			ID:     r.ID,
			Href:   route.ToBook(r.ID).Fragment(),
			Title:  r.Title,
			Volume: r.VolumeNumber,
			Cover:  Image{Src: ImageSrc(r.Cover()), Alt: r.Title},
			Price:  prices.Format(r.EffectivePrice()),
			Status: cardStatus(r),
		})
	}
	return d
}

// Gallery returns the thumbnails of a book with more than one image, capped
// at model.MaxImages. The first one is active.
func Gallery(b model.Book) []Image {
	images := b.Images()
	if len(images) < 2 {
		return nil
	}
	if len(images) > model.MaxImages {
		images = images[:model.MaxImages]
	}
	out := make([]Image, 0, len(images))
	for i, ref := range images {
		out = append(out, Image{
			Src:    ImageSrc(ref),
			Alt:    "Imagen " + strconv.Itoa(i+1),
			Index:  i,
			Active: i == 0,
		})
	}
	return out
}

// Fields returns the meta list of the detail view. Pages appear only when
// known.
func Fields(b model.Book) []Field {
	fields := []Field{
		{"ISBN", b.ISBN},
		{"Colección", b.Collection},
		{"Género", b.Genre},
		{"Editorial", b.Publisher},
		{"Formato", b.Format},
	}
	if b.Pages > 0 {
		fields = append(fields, Field{"Páginas", strconv.Itoa(b.Pages)})
	}
	return append(fields,
		Field{"Estado", b.Condition},
		Field{"Ubicación", b.Location},
		Field{"Preferencia de entrega", b.DeliveryPreference},
	)
}
