package site

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/erazemk/rincon/internal/meta"
)

// ShareURLs returns the share URL of every id, in order.
func ShareURLs(s meta.Site, ids []int64) []string {
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, s.ShareURL(id))
	}
	return urls
}

// WriteURLs writes the URLs separated by single spaces, the format the
// Facebook batch sharing debugger accepts.
func WriteURLs(w io.Writer, urls []string) error {
	_, err := io.WriteString(w, strings.Join(urls, " "))
	return err
}

// SaveURLs writes the URL list to path.
func SaveURLs(path string, urls []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating url list: %w", err)
	}
	if err := WriteURLs(f, urls); err != nil {
		f.Close()
		return fmt.Errorf("writing url list: %w", err)
	}
	return f.Close()
}
