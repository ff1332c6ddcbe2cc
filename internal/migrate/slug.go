package migrate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaces      = regexp.MustCompile(`\s+`)
	dashes      = regexp.MustCompile(`-+`)
)

// Slug turns text into a lower-case ASCII file name fragment with accents
// folded and spaces replaced by dashes.
func Slug(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	s := unsafeChars.ReplaceAllString(folded, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	return dashes.ReplaceAllString(s, "-")
}

// BaseName is the file name prefix for a book's images.
func BaseName(title, author string) string {
	return Slug(title) + "_" + Slug(author)
}
