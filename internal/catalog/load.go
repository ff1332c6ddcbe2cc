package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/erazemk/rincon/internal/model"
)

// maxSourceSize bounds how much of a remote catalog is read.
const maxSourceSize = 32 << 20

// LoadError reports that the catalog source could not be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the catalog once from a file path or an http(s) URL.
// There is no retry; on failure the returned error is a *LoadError and the
// returned catalog is empty, never nil.
func Load(ctx context.Context, client *http.Client, source string) (*Catalog, error) {
	c, _, err := LoadRaw(ctx, client, source)
	return c, err
}

// LoadRaw is Load that also returns the source bytes as read, for copying
// the catalog file verbatim.
func LoadRaw(ctx context.Context, client *http.Client, source string) (*Catalog, []byte, error) {
	rc, err := open(ctx, client, source)
	if err != nil {
		return Empty(), nil, &LoadError{Source: source, Err: err}
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Empty(), nil, &LoadError{Source: source, Err: fmt.Errorf("reading: %w", err)}
	}
	books, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return Empty(), nil, &LoadError{Source: source, Err: err}
	}
	return New(books), raw, nil
}

// Decode parses a JSON array of books.
func Decode(r io.Reader) ([]model.Book, error) {
	var books []model.Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("decoding books: %w", err)
	}
	return books, nil
}

// IsRemote reports whether source is fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if !IsRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		return f, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxSourceSize), resp.Body}, nil
}
