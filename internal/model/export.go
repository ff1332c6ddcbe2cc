package model

import "time"

// Export is one catalog export made from the admin surface.
type Export struct {
	ID        string    `json:"id"`
	BookCount int       `json:"bookCount"`
	Checksum  string    `json:"checksum"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	// Content is the exported JSON text. List queries leave it empty.
	Content string `json:"-"`
}

// Filename is the suggested download name.
func (e Export) Filename() string {
	return "books-" + e.CreatedAt.UTC().Format("20060102-150405") + ".json"
}
