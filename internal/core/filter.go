package core

import (
	"sort"
	"strings"
)

// Filters is an ordered set of column filters with at most one entry per column.
type Filters []FilterOption

// With returns a copy of fs with any filter on f.Column removed and f appended.
func (fs Filters) With(f FilterOption) Filters {
	out := fs.Without(f.Column)
	return append(out, f)
}

// Without returns a copy of fs with the filter on column removed.
func (fs Filters) Without(column FieldKey) Filters {
	out := make(Filters, 0, len(fs))
	for _, f := range fs {
		if f.Column != column {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the filter on column, if any.
func (fs Filters) Get(column FieldKey) (FilterOption, bool) {
	for _, f := range fs {
		if f.Column == column {
			return f, true
		}
	}
	return FilterOption{}, false
}

// FilterRecords returns the records that match every filter, in input order.
// An empty filter set returns rs unchanged.
func FilterRecords(rs []Record, filters []FilterOption) []Record {
	if len(filters) == 0 {
		return rs
	}
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		if matchesAll(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Record, filters []FilterOption) bool {
	for _, f := range filters {
		if !Matches(r, f) {
			return false
		}
	}
	return true
}

// Matches reports whether r satisfies f. The lock status column compares
// the lock flag with "true"/"false"; any other value matches nothing.
// Unrecognized operations match every record.
func Matches(r Record, f FilterOption) bool {
	if f.Column == LockStatusColumn {
		switch strings.ToLower(strings.TrimSpace(f.Value)) {
		case "true":
			return r.IsLocked
		case "false":
			return !r.IsLocked
		default:
			return false
		}
	}

	field := strings.ToLower(FieldValue(r, f.Column))
	value := strings.ToLower(f.Value)

	switch f.Operation {
	case OpContains:
		return strings.Contains(field, value)
	case OpEquals:
		return field == value
	case OpStartsWith:
		return strings.HasPrefix(field, value)
	case OpEndsWith:
		return strings.HasSuffix(field, value)
	default:
		return true
	}
}

// GetUniqueColumnValues returns the distinct non-empty values of column, sorted.
func GetUniqueColumnValues(rs []Record, column FieldKey) []string {
	seen := make(map[string]struct{})
	for _, r := range rs {
		v := FieldValue(r, column)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CreateColumnFilter builds an equals filter, the default used by the column menus.
func CreateColumnFilter(column FieldKey, value string) FilterOption {
	return FilterOption{Column: column, Operation: OpEquals, Value: value}
}

// ParseFilterOperation maps a request string to an operation, defaulting to equals.
func ParseFilterOperation(s string) FilterOperation {
	switch FilterOperation(s) {
	case OpContains, OpEquals, OpStartsWith, OpEndsWith:
		return FilterOperation(s)
	default:
		return OpEquals
	}
}
