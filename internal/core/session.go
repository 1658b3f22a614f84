package core

// session.go composes the store, history, GMDN sheet and ingester into
// one goroutine-safe editing session for the HTTP layer.
//
// Every method takes Service.mu. Ingest completions, sync or async, are
// applied while the ingester holds Ingester.mu, so Service methods release
// their own lock before calling into the ingester.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Event types published by the session.
const (
	EventRecords = "records"
	EventHistory = "history"
	EventGMDN    = "gmdn"
	EventIngest  = "ingest"
)

// Service is the editing session.
type Service struct {
	ingester *Ingester
	history  *HistoryStore
	notifier Notifier
	observer Observer

	mu          sync.Mutex
	store       *Store
	gmdn        *GMDNSheet
	parseErrors []ParseError
	sourceName  string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier publishes change events to n.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithObserver reports measurements to o.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates an empty session.
func NewService(history *HistoryStore, ingester *Ingester, opts ...ServiceOption) *Service {
	s := &Service{
		ingester: ingester,
		history:  history,
		notifier: nopNotifier{},
		observer: nopObserver{},
		gmdn:     NewGMDNSheet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewStore(nil, WithOnChange(func(rs []Record) {
		s.observer.ObserveValidation(Summarize(rs))
	}))
	return s
}

func (s *Service) publish(typ, action string, id any) {
	s.notifier.Publish(Event{Type: typ, ID: id, Action: action})
}

// LoadHistory reads the persisted history log. Failures yield an empty log.
func (s *Service) LoadHistory(ctx context.Context) []UploadHistoryEntry {
	return s.history.Load(ctx)
}

// Records returns every record.
func (s *Service) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Records()
}

// View returns the filtered records.
func (s *Service) View() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.View()
}

// Record returns one record by id.
func (s *Service) Record(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.store.Record(id)
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
	}
	return r, nil
}

// Summary counts every record by status.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Summary()
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	SourceName  string       `json:"sourceName,omitempty"`
	Records     []Record     `json:"records"`
	Total       int          `json:"total"`
	Summary     Summary      `json:"summary"`
	Filters     Filters      `json:"filters"`
	Cursor      EditCursor   `json:"cursor"`
	ParseErrors []ParseError `json:"parseErrors,omitempty"`
	Ingest      IngestStatus `json:"ingest"`
}

// Snapshot returns the filtered view with its summary and cursor.
func (s *Service) Snapshot() Snapshot {
	ingest := s.ingester.Status()

	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SourceName:  s.sourceName,
		Records:     s.store.View(),
		Total:       s.store.Len(),
		Summary:     s.store.Summary(),
		Filters:     s.store.Filters(),
		Cursor:      s.store.Cursor(),
		ParseErrors: append([]ParseError(nil), s.parseErrors...),
		Ingest:      ingest,
	}
}

// StartEdit places the edit cursor on a cell.
func (s *Service) StartEdit(id string, column FieldKey) (EditCursor, bool) {
	s.mu.Lock()
	ok := s.store.StartEditing(id, column)
	cur := s.store.Cursor()
	s.mu.Unlock()

	if ok {
		s.observer.ObserveEdit("start")
	}
	return cur, ok
}

// SetPending updates the value being edited.
func (s *Service) SetPending(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetPending(value)
}

// CommitEdit applies the pending value.
func (s *Service) CommitEdit() (Record, bool) {
	s.mu.Lock()
	r, ok := s.store.CommitEdit()
	s.mu.Unlock()

	if ok {
		s.observer.ObserveEdit("commit")
		s.publish(EventRecords, "edit", r.ID)
	}
	return r, ok
}

// CancelEdit abandons the pending value.
func (s *Service) CancelEdit() bool {
	s.mu.Lock()
	ok := s.store.CancelEdit()
	s.mu.Unlock()

	if ok {
		s.observer.ObserveEdit("cancel")
	}
	return ok
}

// Cursor returns the edit cursor.
func (s *Service) Cursor() EditCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Cursor()
}

// ToggleLock flips one record's lock flag.
func (s *Service) ToggleLock(id string) (Record, error) {
	s.mu.Lock()
	r, ok := s.store.ToggleLock(id)
	s.mu.Unlock()

	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
	}
	s.publish(EventRecords, "lock", id)
	return r, nil
}

// SetAllLocked locks or unlocks every record.
func (s *Service) SetAllLocked(locked bool) int {
	s.mu.Lock()
	n := s.store.SetAllLocked(locked)
	s.mu.Unlock()

	action := "unlock-all"
	if locked {
		action = "lock-all"
	}
	if n > 0 {
		s.publish(EventRecords, action, nil)
	}
	return n
}

// ValidateAll re-validates every record.
func (s *Service) ValidateAll() Summary {
	s.mu.Lock()
	sum := s.store.ValidateAll()
	s.mu.Unlock()

	s.publish(EventRecords, "validate", nil)
	return sum
}

// ApplyFilter sets the filter for f.Column.
func (s *Service) ApplyFilter(f FilterOption) Filters {
	s.mu.Lock()
	s.store.ApplyFilter(f)
	fs := s.store.Filters()
	s.mu.Unlock()

	s.publish(EventRecords, "filter", f.Column)
	return fs
}

// ClearFilter removes the filter on column.
func (s *Service) ClearFilter(column FieldKey) Filters {
	s.mu.Lock()
	s.store.ClearFilter(column)
	fs := s.store.Filters()
	s.mu.Unlock()

	s.publish(EventRecords, "filter", column)
	return fs
}

// ClearFilters removes every filter.
func (s *Service) ClearFilters() {
	s.mu.Lock()
	s.store.ClearFilters()
	s.mu.Unlock()

	s.publish(EventRecords, "filter", nil)
}

// Filters returns the active filters.
func (s *Service) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Filters()
}

// UniqueValues returns the distinct values of column over all records.
func (s *Service) UniqueValues(column FieldKey) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UniqueValues(column)
}

// BulkEdit sets field on every unlocked record in the filtered view.
func (s *Service) BulkEdit(field FieldKey, value string) BulkEditResult {
	s.mu.Lock()
	res := s.store.BulkEdit(field, value)
	s.mu.Unlock()

	s.observer.ObserveBulkEdit(res.Updated, res.Skipped)
	if res.Updated > 0 {
		s.publish(EventRecords, "bulk-edit", field)
	}
	return res
}

// BulkEditPreview reports how many filtered records a bulk edit would touch.
func (s *Service) BulkEditPreview() (unlocked, locked int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := FilterRecords(s.store.records, s.store.filters)
	unlocked = UnlockedCount(view)
	return unlocked, len(view) - unlocked
}

// Import runs the import gate over every record.
func (s *Service) Import(ctx context.Context) (ImportResult, error) {
	s.mu.Lock()
	records := s.store.Records()
	s.mu.Unlock()

	res, err := Import(records)
	if err != nil {
		return res, err
	}
	slog.InfoContext(ctx, "import accepted", "records", res.RecordCount, "warnings", res.WarningCount)
	return res, nil
}

// ExportJSON writes every record as indented JSON.
func (s *Service) ExportJSON(w io.Writer) error {
	return ExportJSON(w, s.Records())
}

// ExportXLSX writes every record as a workbook.
func (s *Service) ExportXLSX(w io.Writer) error {
	return ExportXLSX(w, s.Records())
}

// Clear empties the working set and cancels any running ingest.
func (s *Service) Clear() {
	s.ingester.CancelPending()

	s.mu.Lock()
	s.store.Clear()
	s.gmdn.Reset()
	s.parseErrors = nil
	s.sourceName = ""
	s.mu.Unlock()

	s.publish(EventRecords, "clear", nil)
}

// StartIngest submits src for asynchronous ingestion. On completion the
// batch replaces the working set and is appended to history, unless a
// newer ingest was submitted meanwhile.
func (s *Service) StartIngest(ctx context.Context, src Source) (uint64, error) {
	id, err := s.ingester.Submit(src, s.applyBatch)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "ingest submitted", "ingest_id", id, "source", src.Name, "size", src.Size, "demo", src.Demo)
	s.publish(EventIngest, "started", id)
	return id, nil
}

// LoadDemo submits a generated demo batch.
func (s *Service) LoadDemo(ctx context.Context) (uint64, error) {
	return s.StartIngest(ctx, Source{Name: DemoSourceName, Demo: true})
}

// Ingest parses and applies src synchronously. It takes part in the same
// request ordering as StartIngest: it supersedes any ingest in flight and
// returns ErrIngestSuperseded, without applying, if a newer one starts
// before it finishes.
func (s *Service) Ingest(ctx context.Context, src Source) (ValidatedBatch, error) {
	id, batch, err := s.ingester.IngestAndApply(ctx, src, s.applyBatch)
	if err != nil {
		return ValidatedBatch{}, err
	}
	slog.InfoContext(ctx, "ingest applied", "ingest_id", id, "source", batch.SourceName, "records", len(batch.Records))
	return batch, nil
}

// IngestStatus reports the latest ingest.
func (s *Service) IngestStatus() IngestStatus {
	return s.ingester.Status()
}

// IngestCapacity reports how many parse slots are in use.
func (s *Service) IngestCapacity() IngestLimiterStatus {
	return s.ingester.Limiter().Status()
}

// IngestStatusOf reports one ingest request.
func (s *Service) IngestStatusOf(id uint64) (IngestStatus, error) {
	return s.ingester.StatusOf(id)
}

// CancelIngest cancels the running ingest, if any. The working set is
// left unchanged.
func (s *Service) CancelIngest() bool {
	if !s.ingester.CancelPending() {
		return false
	}
	s.publish(EventIngest, "cancelled", nil)
	return true
}

// applyBatch runs under the ingester lock. It swaps the working set and
// stages the history entry; saving history and publishing events happen
// in the returned follow-up once the lock is released.
func (s *Service) applyBatch(batch ValidatedBatch) func() {
	s.mu.Lock()
	s.store.Replace(batch.Records)
	s.parseErrors = batch.ParseErrors
	s.sourceName = batch.SourceName
	s.mu.Unlock()

	entry := s.history.Stage(batch, batch.SourceName)

	return func() {
		s.history.Flush(context.Background())

		s.publish(EventIngest, "complete", nil)
		s.publish(EventRecords, "replace", nil)
		s.publish(EventHistory, "append", entry.ID)
	}
}

// History returns the history log, newest first.
func (s *Service) History() []UploadHistoryEntry {
	return s.history.Entries()
}

// HistorySnapshot opens a history entry in a view-only store.
func (s *Service) HistorySnapshot(id string) (*Store, UploadHistoryEntry, error) {
	e, ok := s.history.Get(id)
	if !ok {
		return nil, UploadHistoryEntry{}, fmt.Errorf("history entry %s: %w", id, ErrRecordNotFound)
	}
	return NewStore(e.Data, WithViewOnly()), e, nil
}

// ClearHistory empties the history log.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.publish(EventHistory, "clear", nil)
	return nil
}

// GMDNRows returns the GMDN rows for one device, or all rows when
// deviceIdentifier is empty.
func (s *Service) GMDNRows(deviceIdentifier string) []GMDNRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deviceIdentifier == "" {
		return s.gmdn.Rows()
	}
	return s.gmdn.ForDevice(deviceIdentifier)
}

// GMDNEditing returns the id of the GMDN row being edited.
func (s *Service) GMDNEditing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gmdn.Editing()
}

// GMDNAdd creates a pending GMDN row for a device.
func (s *Service) GMDNAdd(deviceIdentifier string) (GMDNRecord, bool) {
	s.mu.Lock()
	r, ok := s.gmdn.Add(deviceIdentifier)
	s.mu.Unlock()

	if ok {
		s.publish(EventGMDN, "add", r.ID)
	}
	return r, ok
}

// GMDNStartEdit selects a GMDN row for editing.
func (s *Service) GMDNStartEdit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gmdn.StartEdit(id)
}

// GMDNSave saves the GMDN row being edited.
func (s *Service) GMDNSave(code, term string) (GMDNRecord, bool) {
	s.mu.Lock()
	r, ok := s.gmdn.Save(code, term)
	s.mu.Unlock()

	if ok {
		s.publish(EventGMDN, "save", r.ID)
	}
	return r, ok
}

// GMDNCancel leaves GMDN edit mode.
func (s *Service) GMDNCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gmdn.Cancel()
}

// GMDNDelete removes a GMDN row.
func (s *Service) GMDNDelete(id string) error {
	s.mu.Lock()
	ok := s.gmdn.Delete(id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("gmdn row %s: %w", id, ErrRecordNotFound)
	}
	s.publish(EventGMDN, "delete", id)
	return nil
}

// GMDNToggleLock flips a GMDN row's lock flag.
func (s *Service) GMDNToggleLock(id string) (GMDNRecord, error) {
	s.mu.Lock()
	r, ok := s.gmdn.ToggleLock(id)
	s.mu.Unlock()

	if !ok {
		return GMDNRecord{}, fmt.Errorf("gmdn row %s: %w", id, ErrRecordNotFound)
	}
	s.publish(EventGMDN, "lock", id)
	return r, nil
}

// Close stops the ingester.
func (s *Service) Close(ctx context.Context) error {
	return s.ingester.Close(ctx)
}
