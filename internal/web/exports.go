package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/rincon/internal/catalog"
	"github.com/erazemk/rincon/internal/digest"
	"github.com/erazemk/rincon/internal/model"
	"github.com/erazemk/rincon/internal/store"
)

// exportHistoryLimit is how many past exports the history page lists.
const exportHistoryLimit = 50

// ExportPage handles GET /export. It shows the current catalog as JSON text
// without marking it exported.
func (s *Server) ExportPage(w http.ResponseWriter, r *http.Request) {
	books := s.Editor.Books()
	data, err := catalog.Encode(books)
	if err != nil {
		slog.Error("failed to encode catalog", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var latest *model.Export
	if s.DB != nil {
		latest, err = store.LatestExport(r.Context(), s.DB)
		if err != nil {
			slog.Error("failed to get latest export", "error", err)
		}
	}

	s.Templates.Render(w, "export.html", &struct {
		PageData
		JSON      string
		BookCount int
		Latest    *model.Export
	}{
		PageData:  s.pageData(w, r, "Exportar"),
		JSON:      string(data),
		BookCount: len(books),
		Latest:    latest,
	})
}

// ExportSubmit handles POST /export. The JSON is recorded in the export
// history; replacing the published books.json stays a manual step.
func (s *Server) ExportSubmit(w http.ResponseWriter, r *http.Request) {
	count := len(s.Editor.Books())
	data, err := s.Editor.Export()
	if err != nil {
		slog.Error("failed to export catalog", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}

	if s.DB == nil {
		s.flash(w, r, FlashSuccess, "JSON generado. Cópielo desde esta página.")
		http.Redirect(w, r, s.path("/export"), http.StatusSeeOther)
		return
	}

	note := strings.TrimSpace(r.PostFormValue("note"))
	export, err := store.CreateExport(r.Context(), s.DB, data, count, note)
	if err != nil {
		slog.Error("failed to record export", "error", err)
		http.Error(w, "failed to record export", http.StatusInternalServerError)
		return
	}

	slog.Info("catalog exported", "export", export.ID, "books", count, "checksum", export.Checksum)
	s.flash(w, r, FlashSuccess, "¡JSON generado! Reemplace books.json con la descarga para publicar los cambios.")
	http.Redirect(w, r, s.path("/exports"), http.StatusSeeOther)
}

// ExportsPage handles GET /exports.
func (s *Server) ExportsPage(w http.ResponseWriter, r *http.Request) {
	var exports []model.Export
	if s.DB != nil {
		var err error
		exports, err = store.ListExports(r.Context(), s.DB, exportHistoryLimit)
		if err != nil {
			slog.Error("failed to list exports", "error", err)
		}
	}

	s.Templates.Render(w, "exports.html", &struct {
		PageData
		Exports []model.Export
	}{
		PageData: s.pageData(w, r, "Historial de exportaciones"),
		Exports:  exports,
	})
}

// ExportDownload handles GET /exports/{id}.
func (s *Server) ExportDownload(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.NotFound(w, r)
		return
	}

	export, err := store.GetExport(r.Context(), s.DB, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to get export", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if export == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	w.Header().Set("ETag", digest.ETag([]byte(export.Content)))
	if _, err := w.Write([]byte(export.Content)); err != nil {
		slog.Error("failed to write export response", "error", err)
	}
}
