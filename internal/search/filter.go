// Package search filters the catalog by a free-text query.
package search

import (
	"fmt"
	"strings"

	"github.com/erazemk/rincon/internal/model"
)

// Result is the filtered view of the catalog.
type Result struct {
	Query string
	Books []model.Book
	// Unfiltered is set when no search is active, so "no results" can be
	// told apart from "no query".
	Unfiltered bool
}

// Empty reports whether an active search matched nothing.
func (r Result) Empty() bool {
	return !r.Unfiltered && len(r.Books) == 0
}

// Summary returns the result line shown under the admin search box.
func (r Result) Summary() string {
	if r.Unfiltered {
		return ""
	}
	n := len(r.Books)
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return fmt.Sprintf("Se encontraron %d resultado%s para \"%s\"", n, plural, r.Query)
}

// Filter returns the books whose title, author, genre or collection contain
// query case-insensitively, or whose status contains the normalized status
// label of query. Result order is catalog order.
func Filter(books []model.Book, query string) Result {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return Result{Query: query, Books: books, Unfiltered: true}
	}

	status := model.NormalizeStatus(term)
	matched := make([]model.Book, 0)
	for _, b := range books {
		if Matches(b, term, status) {
			matched = append(matched, b)
		}
	}
	return Result{Query: strings.TrimSpace(query), Books: matched}
}

// Matches reports whether b matches a lower-cased term and its normalized
// status label.
func Matches(b model.Book, term, status string) bool {
	for _, field := range []string{b.Title, b.Author, b.Genre, b.Collection} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return b.Status != "" && strings.Contains(strings.ToLower(b.Status), status)
}
