// Package web embeds the stylesheet and HTML templates shared by the static
// catalog pages and the admin surface.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static assets (stylesheet).
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the templates. Catalog pages live under site/, admin
// pages under admin/.
func TemplatesFS() fs.FS {
	return sub("templates")
}

func sub(dir string) fs.FS {
	s, err := fs.Sub(content, dir)
	if err != nil {
		log.Fatalf("failed to create %s sub-filesystem: %v", dir, err)
	}
	return s
}
