// Package series resolves the volumes of multi-part works and how complete
// the catalogued set is.
package series

import (
	"cmp"
	"slices"

	"github.com/erazemk/rincon/internal/model"
)

// Completeness classifies a series for the warning banner.
type Completeness string

const (
	// MissingFromCatalog means fewer volumes are catalogued than the work has.
	MissingFromCatalog Completeness = "missing-from-catalog"
	// IncompleteAvailable means every volume is catalogued but some are sold.
	IncompleteAvailable Completeness = "incomplete-available"
	// Complete means every volume is catalogued and available.
	Complete Completeness = "complete"
)

// Info describes a book's series. It is derived on demand and never cached,
// since the admin copy can change between renders.
type Info struct {
	SeriesID model.SeriesID
	// Related holds the other volumes, ascending by volume number.
	Related      []model.Book
	Total        int
	Present      int
	Available    int
	Completeness Completeness
}

// ShowBanner reports whether the series warning should be displayed.
func (i Info) ShowBanner() bool {
	return i.SeriesID != "" && len(i.Related) > 0
}

// Missing returns how many volumes were never entered into the catalog.
func (i Info) Missing() int {
	return i.Total - i.Present
}

// Resolve computes series information for book against the catalog books.
// A book outside any series yields an Info with only itself counted.
func Resolve(book model.Book, books []model.Book) Info {
	info := Info{Present: 1}
	if book.IsAvailable() {
		info.Available = 1
	}
	if !book.InSeries() {
		info.Total = 1
		info.Completeness = classify(info)
		return info
	}

	info.SeriesID = book.SeriesID
	info.Related = Related(book, books)
	info.Present += len(info.Related)
	for _, b := range info.Related {
		if b.IsAvailable() {
			info.Available++
		}
	}
	info.Total = totalVolumes(book, info.Related)
	info.Completeness = classify(info)
	return info
}

// Related returns the other records sharing book's series, sorted ascending
// by volume number. Missing volume numbers count as 0; ties keep catalog order.
func Related(book model.Book, books []model.Book) []model.Book {
	if !book.InSeries() {
		return nil
	}
	var related []model.Book
	for _, b := range books {
		if b.SeriesID == book.SeriesID && b.ID != book.ID {
			related = append(related, b)
		}
	}
	slices.SortStableFunc(related, func(a, b model.Book) int {
		return cmp.Compare(a.VolumeNumber, b.VolumeNumber)
	})
	return related
}

// totalVolumes returns the largest declared total across the series, or the
// number of records present when none is declared. The result is never less
// than the number of records present.
func totalVolumes(book model.Book, related []model.Book) int {
	present := len(related) + 1
	declared := book.TotalVolumes
	for _, b := range related {
		if b.TotalVolumes > declared {
			declared = b.TotalVolumes
		}
	}
	if declared <= 0 {
		return present
	}
	return max(declared, present)
}

func classify(i Info) Completeness {
	switch {
	case i.Present < i.Total:
		return MissingFromCatalog
	case i.Available < i.Total:
		return IncompleteAvailable
	default:
		return Complete
	}
}
