package core

import "testing"

func storeFixture() []Record {
	return ValidateRecords([]Record{
		{ID: "r1", DeviceIdentifier: "UDI-10001-A", ManufacturerName: "Acme", ProductName: "Widget", SingleUse: true},
		{ID: "r2", DeviceIdentifier: "UDI-10002-B", ManufacturerName: "Acme", ProductName: "Gadget", IsLocked: true},
		{ID: "r3", DeviceIdentifier: "UDI-10003-C", ManufacturerName: "Medtronic", ProductName: "Pump"},
	})
}

func TestStore_EditLifecycle(t *testing.T) {
	var notified int
	s := NewStore(storeFixture(), WithOnChange(func([]Record) { notified++ }))

	if !s.StartEditing("r1", FieldProductName) {
		t.Fatal("StartEditing() = false")
	}
	cur := s.Cursor()
	if cur.State != EditEditing || cur.RowID != "r1" || cur.Pending != "Widget" {
		t.Fatalf("cursor = %+v", cur)
	}

	s.SetPending("")
	got, ok := s.CommitEdit()
	if !ok {
		t.Fatal("CommitEdit() = false")
	}
	if got.Status != StatusInvalid {
		t.Errorf("Status = %q, want invalid after clearing product name", got.Status)
	}
	if s.Cursor().State != EditIdle {
		t.Errorf("cursor not idle after commit")
	}
	if notified != 1 {
		t.Errorf("onChange called %d times, want 1", notified)
	}

	// Only the committed record changed.
	recs := s.Records()
	if recs[0].ProductName != "" || recs[2].ProductName != "Pump" {
		t.Errorf("unexpected collection after commit: %+v", recs)
	}
}

func TestStore_BooleanSeedAndCoercion(t *testing.T) {
	s := NewStore(storeFixture())
	s.StartEditing("r1", FieldSingleUse)
	if s.Cursor().Pending != "true" {
		t.Fatalf("Pending = %q, want \"true\"", s.Cursor().Pending)
	}
	s.SetPending("yes")
	got, _ := s.CommitEdit()
	if got.SingleUse {
		t.Error("only the exact string \"true\" should coerce to true")
	}

	s.StartEditing("r1", FieldSingleUse)
	s.SetPending("true")
	got, _ = s.CommitEdit()
	if !got.SingleUse {
		t.Error("SingleUse = false after committing \"true\"")
	}
}

func TestStore_StartEditingNoOps(t *testing.T) {
	tests := []struct {
		name   string
		store  *Store
		id     string
		column FieldKey
	}{
		{"locked record", NewStore(storeFixture()), "r2", FieldProductName},
		{"status column", NewStore(storeFixture()), "r1", FieldStatus},
		{"unknown column", NewStore(storeFixture()), "r1", "nope"},
		{"unknown record", NewStore(storeFixture()), "missing", FieldProductName},
		{"view only", NewStore(storeFixture(), WithViewOnly()), "r1", FieldProductName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.store.StartEditing(tt.id, tt.column) {
				t.Error("StartEditing() = true, want no-op")
			}
			if tt.store.Cursor().State != EditIdle {
				t.Errorf("cursor = %+v, want idle", tt.store.Cursor())
			}
		})
	}
}

func TestStore_LockedEditIsNoOp(t *testing.T) {
	s := NewStore(storeFixture())
	before, _ := s.Record("r2")
	s.StartEditing("r2", FieldManufacturerName)
	s.SetPending("X")
	if _, ok := s.CommitEdit(); ok {
		t.Fatal("CommitEdit() on locked record reported a change")
	}
	after, _ := s.Record("r2")
	if after.ManufacturerName != before.ManufacturerName {
		t.Errorf("locked record changed: %q", after.ManufacturerName)
	}
}

func TestStore_SecondStartAbandonsFirst(t *testing.T) {
	s := NewStore(storeFixture())
	s.StartEditing("r1", FieldProductName)
	s.SetPending("Changed")
	s.StartEditing("r3", FieldModelNumber)

	if s.Abandoned() != 1 {
		t.Errorf("Abandoned() = %d, want 1", s.Abandoned())
	}
	r1, _ := s.Record("r1")
	if r1.ProductName != "Widget" {
		t.Errorf("abandoned edit leaked into record: %q", r1.ProductName)
	}
	if cur := s.Cursor(); cur.RowID != "r3" || cur.Column != FieldModelNumber {
		t.Errorf("cursor = %+v", cur)
	}
}

func TestStore_CommitAfterLockIsDiscarded(t *testing.T) {
	s := NewStore(storeFixture())
	s.StartEditing("r1", FieldProductName)
	s.SetPending("Changed")
	s.ToggleLock("r1")

	if _, ok := s.CommitEdit(); ok {
		t.Error("commit applied to a record locked mid-edit")
	}
	r1, _ := s.Record("r1")
	if r1.ProductName != "Widget" {
		t.Errorf("ProductName = %q", r1.ProductName)
	}
}

func TestStore_CancelEdit(t *testing.T) {
	s := NewStore(storeFixture())
	if s.CancelEdit() {
		t.Error("CancelEdit() while idle = true")
	}
	s.StartEditing("r1", FieldProductName)
	s.SetPending("Other")
	if !s.CancelEdit() {
		t.Error("CancelEdit() = false while editing")
	}
	r1, _ := s.Record("r1")
	if r1.ProductName != "Widget" {
		t.Errorf("cancel mutated record: %q", r1.ProductName)
	}
	if s.Abandoned() != 0 {
		t.Errorf("explicit cancel counted as abandon")
	}
}

func TestStore_ToggleLockDoesNotRevalidate(t *testing.T) {
	recs := storeFixture()
	recs[0].ProductName = ""
	s := NewStore(recs)

	got, ok := s.ToggleLock("r1")
	if !ok || !got.IsLocked {
		t.Fatalf("ToggleLock() = %+v, %v", got, ok)
	}
	if got.Status != StatusValid {
		t.Errorf("Status = %q, lock toggle should not re-validate", got.Status)
	}
	got, _ = s.ToggleLock("r1")
	if got.IsLocked {
		t.Error("second toggle did not unlock")
	}
}

func TestStore_SetAllLocked(t *testing.T) {
	s := NewStore(storeFixture())
	if n := s.SetAllLocked(true); n != 2 {
		t.Errorf("SetAllLocked(true) changed %d, want 2", n)
	}
	if n := s.SetAllLocked(false); n != 3 {
		t.Errorf("SetAllLocked(false) changed %d, want 3", n)
	}
}

func TestStore_ViewOnlyRejectsMutation(t *testing.T) {
	s := NewStore(storeFixture(), WithViewOnly())
	if _, ok := s.ToggleLock("r1"); ok {
		t.Error("ToggleLock succeeded in view-only mode")
	}
	if n := s.SetAllLocked(true); n != 0 {
		t.Errorf("SetAllLocked changed %d in view-only mode", n)
	}
	if res := s.BulkEdit(FieldManufacturerName, "X"); res.Updated != 0 {
		t.Errorf("BulkEdit updated %d in view-only mode", res.Updated)
	}
	s.Replace(nil)
	if s.Len() != 3 {
		t.Errorf("Replace() changed a view-only store")
	}
}

func TestStore_FiltersAndView(t *testing.T) {
	s := NewStore(storeFixture())
	s.ApplyFilter(CreateColumnFilter(FieldManufacturerName, "acme"))
	if got := ids(s.View()); len(got) != 2 {
		t.Errorf("View() = %v, want 2 records", got)
	}

	// Unique values ignore filters.
	if got := s.UniqueValues(FieldManufacturerName); len(got) != 2 {
		t.Errorf("UniqueValues() = %v", got)
	}

	s.SetFilter(FieldManufacturerName, OpEquals, "medtronic")
	if got := ids(s.View()); len(got) != 1 || got[0] != "r3" {
		t.Errorf("View() after replace = %v", got)
	}

	s.ClearFilter(FieldManufacturerName)
	if len(s.View()) != 3 {
		t.Errorf("ClearFilter() left records filtered")
	}
}

func TestStore_BulkEditMergesFilteredView(t *testing.T) {
	s := NewStore(storeFixture())
	s.ApplyFilter(CreateColumnFilter(FieldManufacturerName, "acme"))

	res := s.BulkEdit(FieldManufacturerName, "NewCo")
	if res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("Updated=%d Skipped=%d, want 1/1", res.Updated, res.Skipped)
	}

	all := s.Records()
	want := map[string]string{"r1": "NewCo", "r2": "Acme", "r3": "Medtronic"}
	for _, r := range all {
		if r.ManufacturerName != want[r.ID] {
			t.Errorf("%s manufacturer = %q, want %q", r.ID, r.ManufacturerName, want[r.ID])
		}
	}
}

func TestStore_ReplaceAbandonsEditKeepsFilters(t *testing.T) {
	s := NewStore(storeFixture())
	s.ApplyFilter(CreateColumnFilter(FieldManufacturerName, "acme"))
	s.StartEditing("r1", FieldProductName)

	s.Replace(GenerateMockRecords(5, 1))
	if s.Cursor().State != EditIdle || s.Abandoned() != 1 {
		t.Errorf("cursor = %+v abandoned = %d", s.Cursor(), s.Abandoned())
	}
	if len(s.Filters()) != 1 {
		t.Errorf("filters dropped on Replace")
	}

	s.Clear()
	if s.Len() != 0 || len(s.Filters()) != 0 {
		t.Errorf("Clear() left %d records, %d filters", s.Len(), len(s.Filters()))
	}
}

func TestStore_RecordsAreCopies(t *testing.T) {
	s := NewStore(storeFixture())
	recs := s.Records()
	recs[0].ProductName = "mutated"
	r1, _ := s.Record("r1")
	if r1.ProductName != "Widget" {
		t.Error("Records() aliases store state")
	}
}
