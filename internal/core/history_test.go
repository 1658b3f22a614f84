package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// memPort is an in-memory HistoryPort with injectable failures.
type memPort struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (p *memPort) Load(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data, p.loadErr
}

func (p *memPort) Save(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.data = append([]byte(nil), data...)
	return nil
}

func batchOf(n int) ValidatedBatch {
	rs := ValidateRecords(GenerateMockRecords(n, int64(n)))
	invalid, warning := CountIssues(rs)
	return ValidatedBatch{Records: rs, InvalidCount: invalid, WarningCount: warning}
}

func TestHistoryStore_LoadFailsOpen(t *testing.T) {
	tests := []struct {
		name string
		port *memPort
	}{
		{"nothing stored", &memPort{}},
		{"read error", &memPort{loadErr: errors.New("disk gone")}},
		{"corrupt blob", &memPort{data: []byte("{not json")}},
		{"wrong shape", &memPort{data: []byte(`{"a":1}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistoryStore(tt.port, 10)
			if got := h.Load(context.Background()); len(got) != 0 {
				t.Errorf("Load() = %d entries, want 0", len(got))
			}
		})
	}
}

func TestHistoryStore_AppendPrependsAndCaps(t *testing.T) {
	port := &memPort{}
	h := NewHistoryStore(port, 10)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		h.RecordHistory(ctx, batchOf(2), fmt.Sprintf("file-%02d.csv", i))
	}

	entries := h.Entries()
	if len(entries) != 10 {
		t.Fatalf("len = %d, want 10", len(entries))
	}
	if entries[0].FileName != "file-11.csv" {
		t.Errorf("newest entry = %q, want file-11.csv", entries[0].FileName)
	}
	if entries[9].FileName != "file-02.csv" {
		t.Errorf("oldest entry = %q, want file-02.csv", entries[9].FileName)
	}

	// Round trip through the port keeps the cap and order.
	reloaded := NewHistoryStore(port, 10).Load(ctx)
	if len(reloaded) != 10 || reloaded[0].FileName != "file-11.csv" {
		t.Errorf("reloaded %d entries, first %q", len(reloaded), reloaded[0].FileName)
	}
}

func TestHistoryStore_CorruptBlobAfterIngest(t *testing.T) {
	port := &memPort{}
	h := NewHistoryStore(port, 10)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		h.RecordHistory(ctx, batchOf(1), fmt.Sprintf("f%d.csv", i))
	}
	oldest := h.Entries()[9].ID

	h.RecordHistory(ctx, batchOf(1), "new.csv")

	entries := h.Entries()
	if len(entries) != 10 {
		t.Fatalf("len = %d, want 10", len(entries))
	}
	if entries[0].FileName != "new.csv" {
		t.Errorf("first = %q", entries[0].FileName)
	}
	for _, e := range entries {
		if e.ID == oldest {
			t.Error("oldest entry was not evicted")
		}
	}
}

func TestHistoryStore_SaveFailureIsBestEffort(t *testing.T) {
	port := &memPort{saveErr: errors.New("quota exceeded")}
	h := NewHistoryStore(port, 10)

	e := h.RecordHistory(context.Background(), batchOf(3), "a.csv")
	if e.RecordCount != 3 {
		t.Errorf("RecordCount = %d", e.RecordCount)
	}
	if len(h.Entries()) != 1 {
		t.Error("in-memory log should still hold the entry")
	}
	if port.saves != 1 {
		t.Errorf("saves = %d, want 1", port.saves)
	}
}

func TestNewHistoryEntry(t *testing.T) {
	b := batchOf(20)
	e := NewHistoryEntry(b, "x.csv", testTime)
	if e.IsValid != (b.InvalidCount == 0) {
		t.Errorf("IsValid = %v with %d invalid", e.IsValid, b.InvalidCount)
	}
	if e.RecordCount != 20 || len(e.Data) != 20 {
		t.Errorf("RecordCount = %d, data = %d", e.RecordCount, len(e.Data))
	}

	b.Records[0].ProductName = "mutated"
	if e.Data[0].ProductName == "mutated" {
		t.Error("entry aliases batch records")
	}
}

func TestHistoryStore_SerializedShape(t *testing.T) {
	port := &memPort{}
	h := NewHistoryStore(port, 10)
	h.RecordHistory(context.Background(), batchOf(1), "a.csv")

	var raw []map[string]any
	if err := json.Unmarshal(port.data, &raw); err != nil {
		t.Fatalf("stored blob is not a JSON array: %v", err)
	}
	for _, key := range []string{"id", "fileName", "timestamp", "recordCount", "data", "isValid", "invalidCount", "warningCount"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestHistoryStore_GetAndClear(t *testing.T) {
	port := &memPort{}
	h := NewHistoryStore(port, 10)
	ctx := context.Background()
	e := h.RecordHistory(ctx, batchOf(2), "a.csv")

	got, ok := h.Get(e.ID)
	if !ok || got.FileName != "a.csv" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}
	if _, ok := h.Get("missing"); ok {
		t.Error("Get(missing) = true")
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear() = %v", err)
	}
	if string(port.data) != "[]" {
		t.Errorf("stored after clear = %s", port.data)
	}
}

func TestHistoryStore_StageThenFlush(t *testing.T) {
	port := &memPort{}
	h := NewHistoryStore(port, DefaultHistoryLimit)

	e := h.Stage(batchOf(2), "staged.csv")
	if got := h.Entries(); len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("Entries() after Stage = %+v", got)
	}
	if port.saves != 0 {
		t.Errorf("Stage() saved %d times, want 0", port.saves)
	}

	h.Flush(context.Background())
	if port.saves != 1 {
		t.Errorf("Flush() saves = %d, want 1", port.saves)
	}

	reloaded := NewHistoryStore(port, DefaultHistoryLimit).Load(context.Background())
	if len(reloaded) != 1 || reloaded[0].FileName != "staged.csv" {
		t.Errorf("reloaded = %+v", reloaded)
	}
}
