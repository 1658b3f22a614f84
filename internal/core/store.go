package core

// store.go holds the working record collection and the edit cursor.
//
// A Store is not safe for concurrent use; Service serializes access.
// Every mutation path is a no-op when the store is view-only.

// EditState is the state of the edit cursor.
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
)

func (s EditState) String() string {
	if s == EditEditing {
		return "editing"
	}
	return "idle"
}

// MarshalText encodes the state by name.
func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EditCursor identifies the cell being edited and its uncommitted value.
type EditCursor struct {
	State   EditState `json:"state"`
	RowID   string    `json:"rowId,omitempty"`
	Column  FieldKey  `json:"column,omitempty"`
	Pending string    `json:"pending,omitempty"`
}

// Store owns a record collection, its filters, lock flags and edit cursor.
type Store struct {
	records   []Record
	filters   Filters
	cursor    EditCursor
	viewOnly  bool
	abandoned int
	onChange  func([]Record)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithViewOnly disables every mutation path.
func WithViewOnly() StoreOption {
	return func(s *Store) { s.viewOnly = true }
}

// WithOnChange registers a callback invoked with the full collection after
// every committed mutation.
func WithOnChange(fn func([]Record)) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// NewStore creates a store over a copy of records.
func NewStore(records []Record, opts ...StoreOption) *Store {
	s := &Store{records: cloneRecords(records)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ViewOnly reports whether the store rejects mutations.
func (s *Store) ViewOnly() bool { return s.viewOnly }

// Len returns the number of records in the working set.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of the full working set.
func (s *Store) Records() []Record {
	return cloneRecords(s.records)
}

// View returns a copy of the working set with the active filters applied.
func (s *Store) View() []Record {
	return cloneRecords(FilterRecords(s.records, s.filters))
}

// Summary counts the working set by status.
func (s *Store) Summary() Summary {
	return Summarize(s.records)
}

// Record returns the record with the given id.
func (s *Store) Record(id string) (Record, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.records[i].clone(), true
	}
	return Record{}, false
}

// Cursor returns the current edit cursor.
func (s *Store) Cursor() EditCursor { return s.cursor }

// Abandoned returns how many in-progress edits were discarded because
// another cell started editing or the collection was replaced.
func (s *Store) Abandoned() int { return s.abandoned }

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// StartEditing moves the cursor onto (id, column) seeded with the current
// value. It returns false without changing state when the store is
// view-only, the record is unknown or locked, or the column is not editable.
// An edit already in progress is abandoned first.
func (s *Store) StartEditing(id string, column FieldKey) bool {
	if s.viewOnly {
		return false
	}
	i := s.indexOf(id)
	if i < 0 || s.records[i].IsLocked {
		return false
	}
	col, ok := ColumnByKey(column)
	if !ok || !col.Editable {
		return false
	}

	if s.cursor.State == EditEditing {
		s.abandon()
	}
	s.cursor = EditCursor{
		State:   EditEditing,
		RowID:   id,
		Column:  column,
		Pending: editValue(s.records[i], col),
	}
	return true
}

// SetPending replaces the uncommitted value. It returns false when idle.
func (s *Store) SetPending(value string) bool {
	if s.cursor.State != EditEditing {
		return false
	}
	s.cursor.Pending = value
	return true
}

// CommitEdit applies the pending value, re-validates the edited record and
// returns to idle. It returns the updated record and true when a record
// changed. Commits against a record that was locked or removed meanwhile
// leave the collection untouched.
func (s *Store) CommitEdit() (Record, bool) {
	if s.cursor.State != EditEditing {
		return Record{}, false
	}
	cur := s.cursor
	s.cursor = EditCursor{}

	i := s.indexOf(cur.RowID)
	if i < 0 || s.records[i].IsLocked {
		return Record{}, false
	}
	r := s.records[i].clone()
	if !setField(&r, cur.Column, cur.Pending) {
		return Record{}, false
	}
	s.records[i] = Validate(r)
	s.changed()
	return s.records[i].clone(), true
}

// CancelEdit returns to idle without mutating. It reports whether an edit
// was in progress.
func (s *Store) CancelEdit() bool {
	if s.cursor.State != EditEditing {
		return false
	}
	s.cursor = EditCursor{}
	return true
}

func (s *Store) abandon() {
	s.cursor = EditCursor{}
	s.abandoned++
}

// ToggleLock flips the lock flag of one record without re-validating it.
func (s *Store) ToggleLock(id string) (Record, bool) {
	if s.viewOnly {
		return Record{}, false
	}
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, false
	}
	s.records[i].IsLocked = !s.records[i].IsLocked
	if s.records[i].IsLocked && s.cursor.RowID == id {
		s.cursor = EditCursor{}
	}
	s.changed()
	return s.records[i].clone(), true
}

// SetAllLocked sets the lock flag on every record and returns how many changed.
func (s *Store) SetAllLocked(locked bool) int {
	if s.viewOnly {
		return 0
	}
	n := 0
	for i := range s.records {
		if s.records[i].IsLocked != locked {
			s.records[i].IsLocked = locked
			n++
		}
	}
	if locked {
		s.cursor = EditCursor{}
	}
	if n > 0 {
		s.changed()
	}
	return n
}

// ValidateAll re-validates every record and returns the resulting summary.
func (s *Store) ValidateAll() Summary {
	if s.viewOnly {
		return s.Summary()
	}
	s.records = ValidateRecords(s.records)
	s.changed()
	return s.Summary()
}

// Replace swaps in a new collection. Any edit in progress is abandoned;
// filters are kept.
func (s *Store) Replace(records []Record) {
	if s.viewOnly {
		return
	}
	if s.cursor.State == EditEditing {
		s.abandon()
	}
	s.records = cloneRecords(records)
	s.changed()
}

// Clear empties the collection and drops filters.
func (s *Store) Clear() {
	if s.viewOnly {
		return
	}
	s.cursor = EditCursor{}
	s.records = nil
	s.filters = nil
	s.changed()
}

// Filters returns the active filters.
func (s *Store) Filters() Filters {
	return append(Filters(nil), s.filters...)
}

// ApplyFilter adds f, replacing any filter on the same column.
func (s *Store) ApplyFilter(f FilterOption) {
	s.filters = s.filters.With(f)
}

// SetFilter is ApplyFilter for a column, operation and value triple.
func (s *Store) SetFilter(column FieldKey, op FilterOperation, value string) {
	s.ApplyFilter(FilterOption{Column: column, Operation: op, Value: value})
}

// ClearFilter removes the filter on column.
func (s *Store) ClearFilter(column FieldKey) {
	s.filters = s.filters.Without(column)
}

// ClearFilters removes every filter.
func (s *Store) ClearFilters() {
	s.filters = nil
}

// UniqueValues returns the distinct values of column over the unfiltered set.
func (s *Store) UniqueValues(column FieldKey) []string {
	return GetUniqueColumnValues(s.records, column)
}

// BulkEdit applies value to field across the filtered view and merges the
// results back into the collection by id.
func (s *Store) BulkEdit(field FieldKey, value string) BulkEditResult {
	if s.viewOnly {
		return BulkEditResult{}
	}
	res := ApplyBulkEdit(FilterRecords(s.records, s.filters), field, value)
	if res.Updated == 0 {
		return res
	}

	byID := make(map[string]Record, len(res.Records))
	for _, r := range res.Records {
		byID[r.ID] = r
	}
	for i := range s.records {
		if r, ok := byID[s.records[i].ID]; ok {
			s.records[i] = r
		}
	}
	if s.cursor.State == EditEditing {
		if _, ok := byID[s.cursor.RowID]; ok && s.cursor.Column == field {
			s.abandon()
		}
	}
	s.changed()
	res.Records = cloneRecords(res.Records)
	return res
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.Records())
	}
}
