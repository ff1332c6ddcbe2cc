package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/rincon/internal/imaging"
	"github.com/erazemk/rincon/internal/migrate"
	"github.com/erazemk/rincon/internal/model"
)

// maxUploadBytes bounds one cover upload request.
const maxUploadBytes = 5 * 5 << 20

// BookImagesSubmit handles POST /books/{id}/images. Each uploaded file is
// validated, downscaled and stored as JPEG under the images directory.
func (s *Server) BookImagesSubmit(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromPath(w, r)
	if !ok {
		return
	}
	back := s.path("/books/%d", book.ID)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.flash(w, r, FlashError, "Archivo demasiado grande.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		s.flash(w, r, FlashError, "Seleccione al menos una imagen.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if len(book.ImageList)+len(files) > model.MaxImages {
		s.flash(w, r, FlashError, fmt.Sprintf("Solo puedes tener hasta %d imágenes en total.", model.MaxImages))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			slog.Error("failed to open upload", "file", header.Filename, "error", err)
			continue
		}
		result, err := imaging.Process(file)
		file.Close()
		if err != nil {
			s.flash(w, r, FlashError, fmt.Sprintf("%s: %v", header.Filename, err))
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}

		name, err := s.saveCover(book, result.Data)
		if err != nil {
			slog.Error("failed to save image", "book", book.ID, "error", err)
			http.Error(w, "failed to save image", http.StatusInternalServerError)
			return
		}
		book.ImageList = append(book.ImageList, name)
	}

	if err := s.Editor.Update(book); err != nil {
		slog.Error("failed to attach images", "book", book.ID, "error", err)
		http.Error(w, "failed to save book", http.StatusInternalServerError)
		return
	}

	slog.Info("book images uploaded", "id", book.ID, "count", len(files))
	s.flash(w, r, FlashSuccess, "Imágenes añadidas. "+savedMessage)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// BookImageCoverSubmit handles POST /books/{id}/images/{index}/cover by
// moving the image to the front of the list.
func (s *Server) BookImageCoverSubmit(w http.ResponseWriter, r *http.Request) {
	s.editImages(w, r, func(images []string, i int) []string {
		out := make([]string, 0, len(images))
		out = append(out, images[i])
		out = append(out, images[:i]...)
		return append(out, images[i+1:]...)
	})
}

// BookImageRemoveSubmit handles POST /books/{id}/images/{index}/remove. The
// file stays on disk; the published site may still reference it.
func (s *Server) BookImageRemoveSubmit(w http.ResponseWriter, r *http.Request) {
	s.editImages(w, r, func(images []string, i int) []string {
		out := make([]string, 0, len(images)-1)
		out = append(out, images[:i]...)
		return append(out, images[i+1:]...)
	})
}

func (s *Server) editImages(w http.ResponseWriter, r *http.Request, edit func([]string, int) []string) {
	book, ok := s.bookFromPath(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= len(book.ImageList) {
		http.Error(w, "invalid image index", http.StatusBadRequest)
		return
	}

	book.ImageList = edit(book.ImageList, i)
	if len(book.ImageList) == 0 {
		book.ImageList = nil
	}
	if err := s.Editor.Update(book); err != nil {
		slog.Error("failed to update images", "book", book.ID, "error", err)
		http.Error(w, "failed to save book", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, s.path("/books/%d", book.ID), http.StatusSeeOther)
}

// saveCover writes data under the images directory with a name derived from
// the title and author, and returns the file name.
func (s *Server) saveCover(book model.Book, data []byte) (string, error) {
	if s.ImagesDir == "" {
		return "", fmt.Errorf("no images directory configured")
	}
	if err := os.MkdirAll(s.ImagesDir, 0755); err != nil {
		return "", fmt.Errorf("creating images directory: %w", err)
	}

	base := migrate.BaseName(book.Title, book.Author)
	for n := len(book.ImageList) + 1; ; n++ {
		name := fmt.Sprintf("%s_%d.jpg", base, n)
		f, err := os.OpenFile(filepath.Join(s.ImagesDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", name, err)
		}
		return name, nil
	}
}
