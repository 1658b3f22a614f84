package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// historyItem is a history entry without its record payload.
type historyItem struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Timestamp    time.Time `json:"timestamp"`
	RecordCount  int       `json:"recordCount"`
	IsValid      bool      `json:"isValid"`
	InvalidCount int       `json:"invalidCount"`
	WarningCount int       `json:"warningCount"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.service.History()
	items := make([]historyItem, len(entries))
	for i, e := range entries {
		items[i] = historyItem{
			ID:           e.ID,
			FileName:     e.FileName,
			Timestamp:    e.Timestamp,
			RecordCount:  e.RecordCount,
			IsValid:      e.IsValid,
			InvalidCount: e.InvalidCount,
			WarningCount: e.WarningCount,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetHistory returns a past upload with the view-only column model.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	store, entry, err := s.service.HistorySnapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Entry    core.UploadHistoryEntry `json:"entry"`
		Summary  core.Summary            `json:"summary"`
		Columns  []core.Column           `json:"columns"`
		ViewOnly bool                    `json:"viewOnly"`
	}{
		Entry:    entry,
		Summary:  store.Summary(),
		Columns:  core.Columns(store.ViewOnly()),
		ViewOnly: store.ViewOnly(),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearHistory(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// gmdnResponse lists GMDN rows and the row in edit mode.
type gmdnResponse struct {
	Rows    []core.GMDNRecord `json:"rows"`
	Editing string            `json:"editing,omitempty"`
}

func (s *Server) handleListGMDN(w http.ResponseWriter, r *http.Request) {
	rows := s.service.GMDNRows(r.URL.Query().Get("device"))
	if rows == nil {
		rows = []core.GMDNRecord{}
	}
	writeJSON(w, http.StatusOK, gmdnResponse{Rows: rows, Editing: s.service.GMDNEditing()})
}

func (s *Server) handleAddGMDN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceIdentifier string `json:"deviceIdentifier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	row, ok := s.service.GMDNAdd(req.DeviceIdentifier)
	if !ok {
		writeJSON(w, http.StatusOK, applied{Applied: false})
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleEditGMDN(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, applied{Applied: s.service.GMDNStartEdit(chi.URLParam(r, "id"))})
}

func (s *Server) handleSaveGMDN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"gmdnCode"`
		Term string `json:"gmdnTerm"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	row, ok := s.service.GMDNSave(req.Code, req.Term)
	resp := struct {
		Applied bool             `json:"applied"`
		Row     *core.GMDNRecord `json:"row,omitempty"`
	}{Applied: ok}
	if ok {
		resp.Row = &row
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelGMDN(w http.ResponseWriter, r *http.Request) {
	s.service.GMDNCancel()
	writeJSON(w, http.StatusOK, applied{Applied: true})
}

func (s *Server) handleDeleteGMDN(w http.ResponseWriter, r *http.Request) {
	if err := s.service.GMDNDelete(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleGMDNLock(w http.ResponseWriter, r *http.Request) {
	row, err := s.service.GMDNToggleLock(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
