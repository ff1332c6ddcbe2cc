package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Book represents a single used book listed in the catalog.
// JSON names match the books.json file the storefront is built from.
type Book struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	Genre              string   `json:"genre"`
	Condition          string   `json:"condition"`
	ISBN               string   `json:"isbn"`
	Collection         string   `json:"collection"`
	Publisher          string   `json:"publisher"`
	Format             string   `json:"format"`
	Pages              int      `json:"pages"`
	PublicationYear    int      `json:"publicationYear"`
	Language           string   `json:"language"`
	Price              float64  `json:"price"`
	DiscountPrice      float64  `json:"discountPrice,omitempty"`
	PromoTag           string   `json:"promoTag,omitempty"`
	Status             string   `json:"status"`
	Location           string   `json:"location"`
	ShippingClass      string   `json:"shippingClass"`
	DeliveryPreference string   `json:"deliveryPreference"`
	Defects            string   `json:"defects"`
	Description        string   `json:"description"`
	ImageList          []string `json:"images,omitempty"`
	ImageFile          string   `json:"imageFile,omitempty"`
	FacebookURL        string   `json:"facebookUrl,omitempty"`
	SeriesID           SeriesID `json:"seriesId,omitempty"`
	VolumeNumber       int      `json:"volumeNumber,omitempty"`
	TotalVolumes       int      `json:"totalVolumes,omitempty"`
}

// Book statuses.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
)

// Book conditions offered by the admin form.
const (
	ConditionLikeNew    = "Usado - Como nuevo"
	ConditionGood       = "Usado - Buen estado"
	ConditionAcceptable = "Usado - Aceptable"
)

// Book formats offered by the admin form.
const (
	FormatPaperback = "Tapa Blanda"
	FormatHardcover = "Tapa Dura"
	FormatPocket    = "Bolsillo"
)

// PlaceholderImage is used when a book has no image at all.
const PlaceholderImage = "placeholder.jpg"

// MaxImages is the most images a single book may carry.
const MaxImages = 5

// Defaults filled in by the admin form for new books.
const (
	DefaultISBN               = "S/I"
	DefaultDefects            = "Ninguno"
	DefaultLanguage           = "Español"
	DefaultShippingClass      = "Estándar"
	DefaultDeliveryPreference = "Encuentro en un lugar público"
)

// Conditions lists the accepted conditions in display order.
var Conditions = []string{ConditionLikeNew, ConditionGood, ConditionAcceptable}

// Formats lists the accepted formats in display order.
var Formats = []string{FormatPaperback, FormatHardcover, FormatPocket}

// Languages, ShippingClasses and DeliveryPreferences are the admin form
// choices.
var (
	Languages           = []string{DefaultLanguage, "Inglés", "Francés", "Alemán", "Italiano", "Portugués", "Otro"}
	ShippingClasses     = []string{DefaultShippingClass, "Express", "Internacional"}
	DeliveryPreferences = []string{DefaultDeliveryPreference, "Retiro en la puerta", "Entrega en la puerta"}
)

// NewDraft returns the values a blank admin form starts with.
func NewDraft() Book {
	return Book{
		ISBN:               DefaultISBN,
		Defects:            DefaultDefects,
		Condition:          ConditionGood,
		Format:             FormatPaperback,
		Language:           DefaultLanguage,
		ShippingClass:      DefaultShippingClass,
		DeliveryPreference: DefaultDeliveryPreference,
		Status:             StatusAvailable,
	}
}

// HasDiscount reports whether the discount price takes effect.
func (b Book) HasDiscount() bool {
	return b.DiscountPrice > 0 && b.DiscountPrice < b.Price
}

// EffectivePrice returns the price the book is actually sold for.
func (b Book) EffectivePrice() float64 {
	if b.HasDiscount() {
		return b.DiscountPrice
	}
	return b.Price
}

// Images returns the ordered image references, falling back to the legacy
// single imageFile field and finally to the placeholder.
func (b Book) Images() []string {
	if len(b.ImageList) > 0 {
		return b.ImageList
	}
	if strings.TrimSpace(b.ImageFile) != "" {
		return []string{b.ImageFile}
	}
	return []string{PlaceholderImage}
}

// Cover returns the image presented as the book cover.
func (b Book) Cover() string {
	return b.Images()[0]
}

// HasDefects reports whether the defects field describes actual defects.
func (b Book) HasDefects() bool {
	d := strings.ToLower(strings.TrimSpace(b.Defects))
	return d != "" && d != "ninguno" && d != "none"
}

// IsAvailable reports whether the book can still be bought.
func (b Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}

// InSeries reports whether the book is one volume of a multi-part work.
func (b Book) InSeries() bool {
	return strings.TrimSpace(string(b.SeriesID)) != ""
}

// NormalizeStatus maps localized and canonical status words to the canonical
// status. Unknown input is returned lower-cased.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "available", "disponible":
		return StatusAvailable
	case "sold", "agotado", "vendido":
		return StatusSold
	default:
		return s
	}
}

// ValidationError describes the first invalid field of a book.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields the admin form requires.
func (b Book) Validate() error {
	switch {
	case strings.TrimSpace(b.Title) == "":
		return &ValidationError{Field: "title", Message: "required"}
	case strings.TrimSpace(b.Author) == "":
		return &ValidationError{Field: "author", Message: "required"}
	case b.Price < 0:
		return &ValidationError{Field: "price", Message: "must not be negative"}
	case b.DiscountPrice < 0:
		return &ValidationError{Field: "discountPrice", Message: "must not be negative"}
	case b.Pages < 0:
		return &ValidationError{Field: "pages", Message: "must not be negative"}
	case b.Status != StatusAvailable && b.Status != StatusSold:
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", b.Status)}
	case len(b.ImageList) > MaxImages:
		return &ValidationError{Field: "images", Message: fmt.Sprintf("at most %d images", MaxImages)}
	}
	return nil
}

// SeriesID groups the volumes of one work. Older catalog files store it as a
// number, so both JSON strings and numbers are accepted.
type SeriesID string

// UnmarshalJSON implements json.Unmarshaler.
func (s *SeriesID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SeriesID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("seriesId: %w", err)
	}
	*s = SeriesID(num.String())
	return nil
}
