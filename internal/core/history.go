package core

// history.go keeps the capped upload history log.
//
// The log is serialized as one JSON array and written through a
// HistoryPort. Reads fail open: a missing, unreadable or corrupt blob
// yields an empty log. Writes are best-effort and never fail the ingest
// that produced them.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of entries retained.
const DefaultHistoryLimit = 10

// HistoryKey is the logical key the history blob is stored under.
const HistoryKey = "udiUploadHistory"

// UploadHistoryEntry records one ingested batch. Entries are never modified.
type UploadHistoryEntry struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Timestamp    time.Time `json:"timestamp"`
	RecordCount  int       `json:"recordCount"`
	Data         []Record  `json:"data"`
	IsValid      bool      `json:"isValid"`
	InvalidCount int       `json:"invalidCount"`
	WarningCount int       `json:"warningCount"`
}

// HistoryStore reads and writes the history log through a port.
type HistoryStore struct {
	port  HistoryPort
	limit int
	now   func() time.Time

	mu      sync.Mutex
	entries []UploadHistoryEntry

	// saveMu orders port writes so the last write carries the newest log.
	saveMu sync.Mutex
}

// NewHistoryStore creates a store that keeps at most limit entries.
func NewHistoryStore(port HistoryPort, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{port: port, limit: limit, now: time.Now}
}

// Load reads the log from the port. Any failure is logged and yields an
// empty log.
func (h *HistoryStore) Load(ctx context.Context) []UploadHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	data, err := h.port.Load(ctx)
	if err != nil {
		slog.Warn("history load failed, starting empty", "error", err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var entries []UploadHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("history blob is corrupt, starting empty", "error", err, "bytes", len(data))
		return nil
	}
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = entries
	return h.copyEntries()
}

// Entries returns the in-memory log, newest first.
func (h *HistoryStore) Entries() []UploadHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copyEntries()
}

// Get returns the entry with the given id.
func (h *HistoryStore) Get(id string) (UploadHistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.ID == id {
			e.Data = cloneRecords(e.Data)
			return e, true
		}
	}
	return UploadHistoryEntry{}, false
}

// Save replaces the log and writes it through the port.
func (h *HistoryStore) Save(ctx context.Context, entries []UploadHistoryEntry) error {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	h.mu.Lock()
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = append([]UploadHistoryEntry(nil), entries...)
	snapshot := h.copyEntries()
	h.mu.Unlock()

	return h.persist(ctx, snapshot)
}

// Append prepends e, truncates to the limit and saves. A failed save is
// logged; the in-memory log is still updated.
func (h *HistoryStore) Append(ctx context.Context, e UploadHistoryEntry) []UploadHistoryEntry {
	entries := h.prepend(e)
	h.Flush(ctx)
	return entries
}

// RecordHistory wraps a validated batch in a new entry and appends it.
func (h *HistoryStore) RecordHistory(ctx context.Context, batch ValidatedBatch, sourceName string) UploadHistoryEntry {
	e := h.Stage(batch, sourceName)
	h.Flush(ctx)
	return e
}

// Stage adds an entry for batch to the in-memory log without saving it.
// Callers follow up with Flush once they have released their own locks.
func (h *HistoryStore) Stage(batch ValidatedBatch, sourceName string) UploadHistoryEntry {
	e := NewHistoryEntry(batch, sourceName, h.now())
	h.prepend(e)
	return e
}

// Flush writes the current in-memory log through the port. A failed save
// is logged and otherwise ignored.
func (h *HistoryStore) Flush(ctx context.Context) {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()

	h.mu.Lock()
	snapshot := h.copyEntries()
	h.mu.Unlock()

	if err := h.persist(ctx, snapshot); err != nil {
		slog.Warn("history save failed", "error", err, "entries", len(snapshot))
	}
}

func (h *HistoryStore) prepend(e UploadHistoryEntry) []UploadHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]UploadHistoryEntry, 0, len(h.entries)+1)
	entries = append(entries, e)
	entries = append(entries, h.entries...)
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = entries
	return h.copyEntries()
}

// Clear empties the log and saves.
func (h *HistoryStore) Clear(ctx context.Context) error {
	return h.Save(ctx, nil)
}

// NewHistoryEntry builds an entry for batch.
func NewHistoryEntry(batch ValidatedBatch, sourceName string, at time.Time) UploadHistoryEntry {
	return UploadHistoryEntry{
		ID:           uuid.NewString(),
		FileName:     sourceName,
		Timestamp:    at,
		RecordCount:  len(batch.Records),
		Data:         cloneRecords(batch.Records),
		IsValid:      batch.InvalidCount == 0,
		InvalidCount: batch.InvalidCount,
		WarningCount: batch.WarningCount,
	}
}

func (h *HistoryStore) persist(ctx context.Context, entries []UploadHistoryEntry) error {
	if entries == nil {
		entries = []UploadHistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return h.port.Save(ctx, data)
}

func (h *HistoryStore) copyEntries() []UploadHistoryEntry {
	return append([]UploadHistoryEntry(nil), h.entries...)
}
