package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// maxJSONBody bounds API request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseColumn resolves a grid column key, or the lock status pseudo column
// when allowLock is set.
func parseColumn(raw string, allowLock bool) (core.FieldKey, error) {
	key := core.FieldKey(strings.TrimSpace(raw))
	if allowLock && key == core.LockStatusColumn {
		return key, nil
	}
	if _, ok := core.ColumnByKey(key); !ok {
		return "", fmt.Errorf("%w: unknown column %q", errBadRequest, raw)
	}
	return key, nil
}

// parseOperation accepts an empty operation as equals and rejects anything
// that is not a known operation.
func parseOperation(raw string) (core.FilterOperation, error) {
	if raw == "" {
		return core.OpEquals, nil
	}
	op := core.ParseFilterOperation(raw)
	if string(op) != raw {
		return "", fmt.Errorf("%w: unknown filter operation %q", errBadRequest, raw)
	}
	return op, nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Snapshot())
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Record(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Columns(false))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Summary())
}

func (s *Server) handleValidateAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ValidateAll())
}

func (s *Server) handleSetAllLocked(locked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.service.SetAllLocked(locked)
		writeJSON(w, http.StatusOK, map[string]int{"changed": n})
	}
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.ToggleLock(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// cursorResponse reports an edit operation and the resulting cursor.
type cursorResponse struct {
	Applied bool            `json:"applied"`
	Cursor  core.EditCursor `json:"cursor"`
}

func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Cursor())
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Column string `json:"column"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	cur, ok := s.service.StartEdit(req.ID, core.FieldKey(req.Column))
	writeJSON(w, http.StatusOK, cursorResponse{Applied: ok, Cursor: cur})
}

func (s *Server) handleSetPending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ok := s.service.SetPending(req.Value)
	writeJSON(w, http.StatusOK, cursorResponse{Applied: ok, Cursor: s.service.Cursor()})
}

func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.service.CommitEdit()
	resp := struct {
		Applied bool         `json:"applied"`
		Record  *core.Record `json:"record,omitempty"`
	}{Applied: ok}
	if ok {
		resp.Record = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, applied{Applied: s.service.CancelEdit()})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNilFilters(s.service.Filters()))
}

func (s *Server) handleApplyFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column    string `json:"column"`
		Operation string `json:"operation"`
		Value     string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	f, err := filterFrom(req.Column, req.Operation, req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilFilters(s.service.ApplyFilter(f)))
}

func filterFrom(column, operation, value string) (core.FilterOption, error) {
	key, err := parseColumn(column, true)
	if err != nil {
		return core.FilterOption{}, err
	}
	op, err := parseOperation(operation)
	if err != nil {
		return core.FilterOption{}, err
	}
	return core.FilterOption{Column: key, Operation: op, Value: value}, nil
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	column := core.FieldKey(chi.URLParam(r, "column"))
	writeJSON(w, http.StatusOK, nonNilFilters(s.service.ClearFilter(column)))
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.service.ClearFilters()
	writeJSON(w, http.StatusOK, core.Filters{})
}

func (s *Server) handleUniqueValues(w http.ResponseWriter, r *http.Request) {
	key, err := parseColumn(chi.URLParam(r, "column"), false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	values := s.service.UniqueValues(key)
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}

func nonNilFilters(fs core.Filters) core.Filters {
	if fs == nil {
		return core.Filters{}
	}
	return fs
}

// bulkEditResponse omits the edited records; clients refetch the view.
type bulkEditResponse struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func (s *Server) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	res := s.service.BulkEdit(core.FieldKey(req.Field), req.Value)
	writeJSON(w, http.StatusOK, bulkEditResponse{Updated: res.Updated, Skipped: res.Skipped})
}

func (s *Server) handleBulkEditPreview(w http.ResponseWriter, r *http.Request) {
	unlocked, locked := s.service.BulkEditPreview()
	writeJSON(w, http.StatusOK, map[string]int{"unlocked": unlocked, "locked": locked})
}
