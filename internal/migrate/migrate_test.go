package migrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/rincon/internal/model"
)

var pixel = []byte("\x89PNG\r\n\x1a\nfake")

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"Cien Años de Soledad", "cien-anos-de-soledad"},
		{"Gabriel García Márquez", "gabriel-garcia-marquez"},
		{"¿Qué es esto?", "que-es-esto"},
		{"  El   Señor -- de los  Anillos ", "el-senor-de-los-anillos"},
		{"J.R.R. Tolkien", "jrr-tolkien"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slug(tt.in), "input %q", tt.in)
	}
	assert.Equal(t, "rayuela_julio-cortazar", BaseName("Rayuela", "Julio Cortázar"))
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	books := []model.Book{
		{ID: 1, Title: "Rayuela", Author: "Julio Cortázar", ImageList: []string{
			dataURI("image/jpeg", []byte("jpeg-bytes")),
			"existing.jpg",
			dataURI("image/png", pixel),
		}},
		{ID: 2, Title: "Ficciones", Author: "Borges", ImageFile: dataURI("image/webp", []byte("webp"))},
		{ID: 3, Title: "Sin imágenes", Author: "Nadie", ImageList: []string{"a.jpg"}},
		{ID: 4, Title: "Roto", Author: "X", ImageList: []string{"data:image/png;base64,!!!"}},
	}

	res, err := Extract(context.Background(), books, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"rayuela_julio-cortazar_1.jpg", "existing.jpg", "rayuela_julio-cortazar_2.png"}, res.Books[0].ImageList)
	assert.Equal(t, "ficciones_borges_1.webp", res.Books[1].ImageFile)
	assert.Equal(t, books[2], res.Books[2])
	assert.Equal(t, books[3].ImageList, res.Books[3].ImageList, "undecodable images stay in place")

	require.Len(t, res.Entries, 3)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, int64(4), res.Failures[0].BookID)
	assert.Equal(t, 3, res.BooksWithImages)

	data, err := os.ReadFile(filepath.Join(dir, "rayuela_julio-cortazar_2.png"))
	require.NoError(t, err)
	assert.Equal(t, pixel, data)

	// Input books are not modified.
	assert.True(t, bytes.HasPrefix([]byte(books[0].ImageList[0]), []byte("data:")))
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "books.json")
	books := []model.Book{{ID: 7, Title: "El Aleph", Author: "Borges", Status: "available", ImageList: []string{dataURI("image/jpeg", []byte("x"))}}}
	raw, err := json.Marshal(books)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	logPath := filepath.Join(root, "migracion-log.txt")
	res, err := Run(context.Background(), Options{
		CatalogPath: path,
		ImagesDir:   filepath.Join(root, "images"),
		LogFile:     logPath,
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	backup, err := os.ReadFile(filepath.Join(root, "books.backup.json"))
	require.NoError(t, err)
	assert.Equal(t, raw, backup)

	var migrated []model.Book
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &migrated))
	assert.Equal(t, []string{"el-aleph_borges_1.jpg"}, migrated[0].ImageList)
	assert.FileExists(t, filepath.Join(root, "images", "el-aleph_borges_1.jpg"))

	logText, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logText), "el-aleph_borges_1.jpg")
}

func TestRunWithoutImagesLeavesCatalog(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "books.json")
	raw := []byte(`[{"id":1,"title":"A","images":["a.jpg"]}]`)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	res, err := Run(context.Background(), Options{CatalogPath: path, ImagesDir: filepath.Join(root, "images")})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "books.backup.json", BackupPath("books.json", ""))
	assert.Equal(t, "/x/books.old.json", BackupPath("/x/books.json", ".old"))
}
