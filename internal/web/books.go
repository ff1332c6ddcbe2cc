package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/search"
)

// savedMessage reminds the operator that edits live in memory only.
const savedMessage = "No olvide exportar el JSON para guardar los cambios permanentemente."

// fieldLabels names form fields in validation messages.
var fieldLabels = map[string]string{
	"title":         "Título",
	"author":        "Autor",
	"price":         "Precio",
	"discountPrice": "Precio descuento",
	"pages":         "Número de páginas",
	"status":        "Disponibilidad",
	"images":        "Imágenes",
}

// formChoices are the select options shared by the new and edit forms.
type formChoices struct {
	Conditions          []string
	Formats             []string
	Languages           []string
	ShippingClasses     []string
	DeliveryPreferences []string
	MaxImages           int
}

func choices() formChoices {
	return formChoices{
		Conditions:          model.Conditions,
		Formats:             model.Formats,
		Languages:           model.Languages,
		ShippingClasses:     model.ShippingClasses,
		DeliveryPreferences: model.DeliveryPreferences,
		MaxImages:           model.MaxImages,
	}
}

type bookFormPage struct {
	PageData
	Book   model.Book
	IsNew  bool
	Action string
	formChoices
}

// BooksPage handles GET /.
func (s *Server) BooksPage(w http.ResponseWriter, r *http.Request) {
	res := search.Filter(s.Editor.Books(), r.URL.Query().Get("q"))

	s.Templates.Render(w, "books.html", &struct {
		PageData
		Query   string
		Summary string
		Books   []model.Book
		Empty   bool
	}{
		PageData: s.pageData(w, r, "Libros"),
		Query:    res.Query,
		Summary:  res.Summary(),
		Books:    res.Books,
		Empty:    res.Empty(),
	})
}

// BookNewPage handles GET /books/new.
func (s *Server) BookNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "book_form.html", &bookFormPage{
		PageData:    s.pageData(w, r, "Añadir libro"),
		Book:        model.NewDraft(),
		IsNew:       true,
		Action:      s.path("/books"),
		formChoices: choices(),
	})
}

// BookCreateSubmit handles POST /books.
func (s *Server) BookCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	book := parseBookForm(r, model.NewDraft())
	created, err := s.Editor.Add(book)
	if err != nil {
		s.renderInvalid(w, r, book, true, s.path("/books"), err)
		return
	}

	slog.Info("book added", "id", created.ID, "title", created.Title)
	s.flash(w, r, FlashSuccess, "¡Libro añadido en memoria! "+savedMessage)
	http.Redirect(w, r, s.path("/books/%d", created.ID), http.StatusSeeOther)
}

// BookEditPage handles GET /books/{id}.
func (s *Server) BookEditPage(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromPath(w, r)
	if !ok {
		return
	}

	s.Templates.Render(w, "book_form.html", &bookFormPage{
		PageData:    s.pageData(w, r, book.Title),
		Book:        book,
		Action:      s.path("/books/%d", book.ID),
		formChoices: choices(),
	})
}

// BookUpdateSubmit handles POST /books/{id}.
func (s *Server) BookUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	current, ok := s.bookFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	book := parseBookForm(r, current)
	action := s.path("/books/%d", book.ID)
	if err := s.Editor.Update(book); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}
		s.renderInvalid(w, r, book, false, action, err)
		return
	}

	slog.Info("book updated", "id", book.ID, "title", book.Title, "status", book.Status)
	s.flash(w, r, FlashSuccess, "¡Libro actualizado en memoria! "+savedMessage)
	http.Redirect(w, r, action, http.StatusSeeOther)
}

// renderInvalid shows the form again with the submitted values.
func (s *Server) renderInvalid(w http.ResponseWriter, r *http.Request, book model.Book, isNew bool, action string, err error) {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		slog.Error("failed to save book", "error", err)
		http.Error(w, "failed to save book", http.StatusInternalServerError)
		return
	}

	pd := s.pageData(w, r, "Revisar libro")
	label := fieldLabels[verr.Field]
	if label == "" {
		label = verr.Field
	}
	pd.Error = label + ": " + verr.Message

	s.Templates.RenderStatus(w, http.StatusUnprocessableEntity, "book_form.html", &bookFormPage{
		PageData:    pd,
		Book:        book,
		IsNew:       isNew,
		Action:      action,
		formChoices: choices(),
	})
}

// bookFromPath loads the book named by the {id} path parameter, writing an
// error response when there is none.
func (s *Server) bookFromPath(w http.ResponseWriter, r *http.Request) (model.Book, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return model.Book{}, false
	}
	book, err := s.Editor.Get(id)
	if err != nil {
		http.Error(w, "book not found", http.StatusNotFound)
		return model.Book{}, false
	}
	return book, true
}

// parseBookForm overlays the submitted fields on base. Images are managed by
// their own routes and kept from base.
func parseBookForm(r *http.Request, base model.Book) model.Book {
	b := base
	text := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }

	b.Title = text("title")
	b.Author = text("author")
	b.Genre = text("genre")
	b.Condition = text("condition")
	b.ISBN = text("isbn")
	b.Collection = text("collection")
	b.Publisher = text("publisher")
	b.Format = text("format")
	b.Language = text("language")
	b.PromoTag = text("promoTag")
	b.Status = model.NormalizeStatus(text("status"))
	b.Location = text("location")
	b.ShippingClass = text("shippingClass")
	b.DeliveryPreference = text("deliveryPreference")
	b.Defects = text("defects")
	b.Description = strings.TrimSpace(r.PostFormValue("description"))
	b.ImageFile = text("imageFile")
	b.FacebookURL = text("facebookUrl")
	b.SeriesID = model.SeriesID(text("series"))

	b.Price = formFloat(text("price"))
	b.DiscountPrice = formFloat(text("discountPrice"))
	b.Pages = formInt(text("pages"))
	b.PublicationYear = formInt(text("publicationYear"))
	b.VolumeNumber = formInt(text("volumeNumber"))
	b.TotalVolumes = formInt(text("totalVolumes"))

	if b.ISBN == "" {
		b.ISBN = model.DefaultISBN
	}
	if b.Defects == "" {
		b.Defects = model.DefaultDefects
	}
	return b
}

// formFloat parses a number field. Blank or malformed input reads as zero,
// which is also the "not set" value for optional prices.
func formFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func formInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
