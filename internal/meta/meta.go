// Package meta computes the page descriptors (Open Graph, Twitter card and
// document title) for the current view and applies them to a page head.
package meta

import (
	"strings"
	"unicode/utf8"

	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/price"
	"github.com/erazemk/rincon/internal/route"
)

// Descriptor keys.
const (
	OGTitle            = "og:title"
	OGDescription      = "og:description"
	OGURL              = "og:url"
	OGImage            = "og:image"
	TwitterTitle       = "twitter:title"
	TwitterDescription = "twitter:description"
	TwitterImage       = "twitter:image"
)

// Keys lists every meta key in the order they are synchronised.
var Keys = []string{
	OGTitle, OGDescription, OGURL, OGImage,
	TwitterTitle, TwitterDescription, TwitterImage,
}

// DescriptionRunes is how much of the book description goes into the
// descriptor text.
const DescriptionRunes = 120

// Site holds the site-wide values descriptors are built from.
type Site struct {
	Name    string
	BaseURL string
	// DefaultImage is the image file used for the listing and for books whose
	// cover cannot be shared as a URL.
	DefaultImage string

	Title              string
	Description        string
	TwitterTitle       string
	TwitterDescription string
	DocumentTitle      string
}

// DefaultSite returns the store's built-in defaults.
func DefaultSite() Site {
	return Site{
		Name:               "El Rincón del Lector",
		DefaultImage:       "photo-1507842217343-583bb7270b66.jpg",
		Title:              "El Rincón del Lector - Libros de Segunda Mano",
		Description:        "Explora nuestra colección de tesoros literarios de segunda mano y encuentra tu próxima aventura.",
		TwitterTitle:       "El Rincón del Lector",
		TwitterDescription: "Libros de segunda mano con historias que merecen una segunda oportunidad",
		DocumentTitle:      "Librería El Rincón del Lector",
	}
}

// URL joins a path onto the base URL.
func (s Site) URL(path string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	path = strings.TrimPrefix(strings.TrimPrefix(path, "./"), "/")
	if path == "" {
		return base + "/"
	}
	return base + "/" + path
}

// ShareURL is the canonical URL shared for a book: its static preview page,
// which scrapers can read without running scripts.
func (s Site) ShareURL(id int64) string {
	return s.URL(route.PagePath(id))
}

// ImageURL returns an absolute URL for an image reference. Absolute http(s)
// references are kept, inline data URIs and blanks fall back to the default
// image, and file names resolve under images/.
func (s Site) ImageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "", strings.HasPrefix(ref, "data:"):
		return s.URL("images/" + s.DefaultImage)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "images/"), strings.HasPrefix(ref, "./images/"):
		return s.URL(ref)
	default:
		return s.URL("images/" + ref)
	}
}

// Descriptors is the full set of values written into a page head.
type Descriptors struct {
	Title              string
	Description        string
	URL                string
	Image              string
	TwitterTitle       string
	TwitterDescription string
	DocumentTitle      string
}

// Values returns the descriptors keyed by meta name. Every key in Keys is
// present.
func (d Descriptors) Values() map[string]string {
	return map[string]string{
		OGTitle:            d.Title,
		OGDescription:      d.Description,
		OGURL:              d.URL,
		OGImage:            d.Image,
		TwitterTitle:       d.TwitterTitle,
		TwitterDescription: d.TwitterDescription,
		TwitterImage:       d.Image,
	}
}

// Defaults returns the site-wide descriptors used by the listing view.
func Defaults(site Site) Descriptors {
	return Descriptors{
		Title:              site.Title,
		Description:        site.Description,
		URL:                site.URL(""),
		Image:              site.ImageURL(""),
		TwitterTitle:       site.TwitterTitle,
		TwitterDescription: site.TwitterDescription,
		DocumentTitle:      site.DocumentTitle,
	}
}

// ForBook returns the descriptors for a book's detail view.
func ForBook(site Site, prices *price.Formatter, b model.Book) Descriptors {
	desc := Describe(prices, b)
	title := b.Title + " - " + site.Name
	return Descriptors{
		Title:              title,
		Description:        desc,
		URL:                site.ShareURL(b.ID),
		Image:              site.ImageURL(b.Cover()),
		TwitterTitle:       b.Title,
		TwitterDescription: desc,
		DocumentTitle:      title,
	}
}

// Describe builds the one-line book summary used as descriptor text.
func Describe(prices *price.Formatter, b model.Book) string {
	if prices == nil {
		prices = price.Default()
	}
	var sb strings.Builder
	sb.WriteString(b.Author)
	sb.WriteString(" - ")
	sb.WriteString(b.Genre)
	sb.WriteString(". ")
	sb.WriteString(b.Condition)
	sb.WriteString(". Precio: ")
	sb.WriteString(prices.Format(b.EffectivePrice()))
	sb.WriteString(". ")
	sb.WriteString(truncate(b.Description, DescriptionRunes))
	sb.WriteString("...")
	return sb.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
