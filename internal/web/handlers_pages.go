package web

// handlers_pages.go serves the HTML editor. Form actions follow
// post/redirect/get: they mutate the session and redirect to "/" with an
// optional flash message. Failures re-render the editor with an alert.

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/UDIEditor/internal/core"
	"github.com/JonMunkholm/UDIEditor/internal/logging"
	"github.com/JonMunkholm/UDIEditor/internal/web/templates"
)

// renderEditor writes the editor page with the current session state.
func (s *Server) renderEditor(w http.ResponseWriter, r *http.Request, status int, flash string, alert *core.UserMessage) {
	data := templates.EditorData{
		Snapshot: s.service.Snapshot(),
		History:  s.service.History(),
		GMDN:     s.service.GMDNRows(""),
		Flash:    flash,
		Error:    alert,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.EditorPage(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render editor", "error", err)
	}
}

// redirectHome sends the browser back to the editor.
func redirectHome(w http.ResponseWriter, r *http.Request, flash string) {
	target := "/"
	if flash != "" {
		target += "?flash=" + url.QueryEscape(flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	s.renderEditor(w, r, http.StatusOK, r.URL.Query().Get("flash"), nil)
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	store, entry, err := s.service.HistorySnapshot(chi.URLParam(r, "id"))
	if err != nil {
		renderErrorPage(w, r, core.MapError(err), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.HistoryPage(entry, store.Records(), store.Summary()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render history", "error", err)
	}
}

func (s *Server) handleCellEditForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.service.StartEdit(r.PostForm.Get("id"), core.FieldKey(r.PostForm.Get("column")))
	redirectHome(w, r, "")
}

func (s *Server) handleCellCommitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.service.SetPending(r.PostForm.Get("value"))
	s.service.CommitEdit()
	redirectHome(w, r, "")
}

func (s *Server) handleCellCancelForm(w http.ResponseWriter, r *http.Request) {
	s.service.CancelEdit()
	redirectHome(w, r, "")
}

func (s *Server) handleToggleLockForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.ToggleLock(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r, "")
}

func (s *Server) handleValidateForm(w http.ResponseWriter, r *http.Request) {
	sum := s.service.ValidateAll()
	redirectHome(w, r, fmt.Sprintf("Validated %d records: %d invalid, %d warnings", sum.Total, sum.Invalid, sum.Warning))
}

func (s *Server) handleLockAllForm(locked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.service.SetAllLocked(locked)
		redirectHome(w, r, "")
	}
}

func (s *Server) handleFilterForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	f, err := filterFrom(r.PostForm.Get("column"), r.PostForm.Get("operation"), r.PostForm.Get("value"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.service.ApplyFilter(f)
	redirectHome(w, r, "")
}

func (s *Server) handleClearFilterForm(w http.ResponseWriter, r *http.Request) {
	s.service.ClearFilter(core.FieldKey(chi.URLParam(r, "column")))
	redirectHome(w, r, "")
}

func (s *Server) handleClearFiltersForm(w http.ResponseWriter, r *http.Request) {
	s.service.ClearFilters()
	redirectHome(w, r, "")
}

func (s *Server) handleBulkEditForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res := s.service.BulkEdit(core.FieldKey(r.PostForm.Get("field")), r.PostForm.Get("value"))
	redirectHome(w, r, fmt.Sprintf("Updated %d records, skipped %d locked", res.Updated, res.Skipped))
}

func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Import(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r, fmt.Sprintf("Imported %d records", res.RecordCount))
}

func (s *Server) handleClearForm(w http.ResponseWriter, r *http.Request) {
	s.service.Clear()
	redirectHome(w, r, "")
}

func (s *Server) handleClearHistoryForm(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearHistory(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r, "History cleared")
}

func (s *Server) handleCancelIngestForm(w http.ResponseWriter, r *http.Request) {
	s.service.CancelIngest()
	redirectHome(w, r, "")
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	src, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.StartIngest(r.Context(), src); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r, "Processing "+src.Name)
}

func (s *Server) handleDemoForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.LoadDemo(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r, "Loading demo data")
}
