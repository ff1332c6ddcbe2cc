// Package route maps URL fragments to catalog view states and back.
package route

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the visible view.
type Kind int

const (
	Listing Kind = iota
	Detail
)

func (k Kind) String() string {
	if k == Detail {
		return "detail"
	}
	return "listing"
}

// Prefix starts every detail fragment.
const Prefix = "item/"

var fragmentRE = regexp.MustCompile(`^item/(\d+)$`)

// State is the router state. The zero value is Listing.
type State struct {
	Kind   Kind
	BookID int64
}

// Home returns the listing state.
func Home() State {
	return State{Kind: Listing}
}

// ToBook returns the detail state for a book.
func ToBook(id int64) State {
	if id <= 0 {
		return Home()
	}
	return State{Kind: Detail, BookID: id}
}

// IsDetail reports whether the state shows a single book.
func (s State) IsDetail() bool {
	return s.Kind == Detail
}

// Fragment returns the URL fragment for the state, including the leading
// '#'. Listing maps to the empty fragment.
func (s State) Fragment() string {
	if !s.IsDetail() || s.BookID <= 0 {
		return ""
	}
	return "#" + Prefix + strconv.FormatInt(s.BookID, 10)
}

// Parse derives the state from a URL fragment of the form #item/<id>. The
// leading '#' is optional. Empty or malformed fragments yield Listing.
func Parse(fragment string) State {
	fragment = strings.TrimPrefix(fragment, "#")
	m := fragmentRE.FindStringSubmatch(fragment)
	if m == nil {
		return Home()
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return Home()
	}
	return ToBook(id)
}

// Lookup reports whether a book id exists.
type Lookup interface {
	Has(id int64) bool
}

// Resolution is the outcome of resolving a state against the catalog.
type Resolution struct {
	State State
	// Redirected is set when a detail state pointed at a missing book and
	// fell back to Listing.
	Redirected bool
}

// Resolve checks a detail state against the catalog. A missing target is not
// an error: the state falls back to Listing.
func Resolve(s State, books Lookup) Resolution {
	if !s.IsDetail() {
		return Resolution{State: Home()}
	}
	if books == nil || !books.Has(s.BookID) {
		return Resolution{State: Home(), Redirected: true}
	}
	return Resolution{State: s}
}

// PagePath returns the static preview page name for a book.
func PagePath(id int64) string {
	return "item-" + strconv.FormatInt(id, 10) + ".html"
}
