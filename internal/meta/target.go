package meta

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Target is a page head descriptors can be written to.
type Target interface {
	// SetMeta overwrites the content of the meta element for key and reports
	// whether the element exists.
	SetMeta(key, content string) bool
	SetTitle(title string)
}

// Sync writes every descriptor to the target. Keys the target does not carry
// are skipped. It returns the keys that were written.
func Sync(t Target, d Descriptors) []string {
	values := d.Values()
	written := make([]string, 0, len(Keys))
	for _, k := range Keys {
		if t.SetMeta(k, values[k]) {
			written = append(written, k)
		}
	}
	t.SetTitle(d.DocumentTitle)
	return written
}

// Head is an in-memory page head. Only keys present in the head are
// updated by Sync; templates read the values back when rendering.
type Head struct {
	Title string
	Meta  map[string]string
}

// NewHead returns a head carrying all descriptor keys.
func NewHead() *Head {
	h := &Head{Meta: make(map[string]string, len(Keys))}
	for _, k := range Keys {
		h.Meta[k] = ""
	}
	return h
}

// NewHeadFor returns a full head already synchronised with d.
func NewHeadFor(d Descriptors) *Head {
	h := NewHead()
	Sync(h, d)
	return h
}

func (h *Head) SetMeta(key, content string) bool {
	if _, ok := h.Meta[key]; !ok {
		return false
	}
	h.Meta[key] = content
	return true
}

func (h *Head) SetTitle(title string) {
	h.Title = title
}

// Get returns the content for key.
func (h *Head) Get(key string) string {
	return h.Meta[key]
}

// Document is a parsed HTML page whose head can be synchronised in place.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses an HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// SetMeta looks the element up by property first and by name second.
func (d *Document) SetMeta(key, content string) bool {
	sel := d.find(key)
	if sel.Length() == 0 {
		return false
	}
	sel.First().SetAttr("content", content)
	return true
}

// Meta returns the content of the element for key.
func (d *Document) Meta(key string) (string, bool) {
	sel := d.find(key)
	if sel.Length() == 0 {
		return "", false
	}
	return sel.First().AttrOr("content", ""), true
}

func (d *Document) find(key string) *goquery.Selection {
	sel := d.doc.Find(`meta[property="` + key + `"]`)
	if sel.Length() == 0 {
		sel = d.doc.Find(`meta[name="` + key + `"]`)
	}
	return sel
}

// SetTitle replaces the document title, creating the element when the head
// has none.
func (d *Document) SetTitle(title string) {
	sel := d.doc.Find("head title")
	if sel.Length() > 0 {
		sel.First().SetText(title)
		return
	}
	head := d.doc.Find("head")
	if head.Length() == 0 {
		return
	}
	n := &html.Node{Type: html.ElementNode, DataAtom: atom.Title, Data: "title"}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.Nodes[0].AppendChild(n)
}

// Title returns the current document title.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// Render writes the document back out as HTML. Attribute values are escaped
// by the serialiser.
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}
