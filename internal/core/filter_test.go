package core

import (
	"reflect"
	"testing"
)

func filterFixture() []Record {
	return []Record{
		{ID: "1", DeviceIdentifier: "UDI-10001-A", ManufacturerName: "Medtronic", ProductName: "CardioFlow Pro", SingleUse: true, IsLocked: true},
		{ID: "2", DeviceIdentifier: "UDI-10002-B", ManufacturerName: "Abbott Laboratories", ProductName: "NeuroScan XL"},
		{ID: "3", DeviceIdentifier: "UDI-10003-C", ManufacturerName: "medtronic", ProductName: "OrthoPro Lite", IsLocked: true},
		{ID: "4", DeviceIdentifier: "UDI-10004-D", ManufacturerName: "", ProductName: "VitaSense Mini"},
	}
}

func ids(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestFilterRecords(t *testing.T) {
	tests := []struct {
		name    string
		filters []FilterOption
		want    []string
	}{
		{
			name:    "empty filters is identity",
			filters: nil,
			want:    []string{"1", "2", "3", "4"},
		},
		{
			name:    "equals is case insensitive",
			filters: []FilterOption{{Column: FieldManufacturerName, Operation: OpEquals, Value: "MEDTRONIC"}},
			want:    []string{"1", "3"},
		},
		{
			name:    "contains",
			filters: []FilterOption{{Column: FieldProductName, Operation: OpContains, Value: "pro"}},
			want:    []string{"1", "3"},
		},
		{
			name:    "startsWith",
			filters: []FilterOption{{Column: FieldProductName, Operation: OpStartsWith, Value: "neuro"}},
			want:    []string{"2"},
		},
		{
			name:    "endsWith",
			filters: []FilterOption{{Column: FieldDeviceIdentifier, Operation: OpEndsWith, Value: "-d"}},
			want:    []string{"4"},
		},
		{
			name:    "boolean column compares stringified value",
			filters: []FilterOption{{Column: FieldSingleUse, Operation: OpEquals, Value: "true"}},
			want:    []string{"1"},
		},
		{
			name: "filters combine with AND",
			filters: []FilterOption{
				{Column: FieldManufacturerName, Operation: OpEquals, Value: "medtronic"},
				{Column: FieldProductName, Operation: OpContains, Value: "lite"},
			},
			want: []string{"3"},
		},
		{
			name:    "lock sentinel true",
			filters: []FilterOption{{Column: LockStatusColumn, Operation: OpEquals, Value: "true"}},
			want:    []string{"1", "3"},
		},
		{
			name:    "lock sentinel false ignores operation",
			filters: []FilterOption{{Column: LockStatusColumn, Operation: OpContains, Value: "false"}},
			want:    []string{"2", "4"},
		},
		{
			name:    "lock sentinel garbage matches nothing",
			filters: []FilterOption{{Column: LockStatusColumn, Operation: OpEquals, Value: "yes"}},
			want:    []string{},
		},
		{
			name:    "unknown operation matches everything",
			filters: []FilterOption{{Column: FieldProductName, Operation: "regex", Value: "zzz"}},
			want:    []string{"1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterRecords(filterFixture(), tt.filters))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterRecords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterRecords_SubsetProperty(t *testing.T) {
	rs := GenerateMockRecords(50, 7)
	filters := []FilterOption{{Column: FieldManufacturerName, Operation: OpContains, Value: "a"}}
	got := FilterRecords(rs, filters)

	if len(got) > len(rs) {
		t.Fatalf("filtered %d records from %d", len(got), len(rs))
	}
	for _, r := range got {
		if !Matches(r, filters[0]) {
			t.Errorf("record %s does not match filter", r.ID)
		}
	}
}

func TestGetUniqueColumnValues(t *testing.T) {
	got := GetUniqueColumnValues(filterFixture(), FieldManufacturerName)
	want := []string{"Abbott Laboratories", "Medtronic", "medtronic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetUniqueColumnValues() = %v, want %v", got, want)
	}

	bools := GetUniqueColumnValues(filterFixture(), FieldSingleUse)
	if !reflect.DeepEqual(bools, []string{"false", "true"}) {
		t.Errorf("boolean values = %v", bools)
	}
}

func TestFilters_WithReplacesSameColumn(t *testing.T) {
	var fs Filters
	fs = fs.With(CreateColumnFilter(FieldManufacturerName, "Acme"))
	fs = fs.With(CreateColumnFilter(FieldProductName, "Widget"))
	fs = fs.With(CreateColumnFilter(FieldManufacturerName, "Medtronic"))

	if len(fs) != 2 {
		t.Fatalf("len = %d, want 2", len(fs))
	}
	f, ok := fs.Get(FieldManufacturerName)
	if !ok || f.Value != "Medtronic" || f.Operation != OpEquals {
		t.Errorf("manufacturer filter = %+v", f)
	}
	if fs[1].Column != FieldManufacturerName {
		t.Errorf("replaced filter should move to the end, got %v", fs)
	}

	fs = fs.Without(FieldProductName)
	if _, ok := fs.Get(FieldProductName); ok {
		t.Error("Without() kept product filter")
	}
}

func TestParseFilterOperation(t *testing.T) {
	if got := ParseFilterOperation("startsWith"); got != OpStartsWith {
		t.Errorf("got %q", got)
	}
	if got := ParseFilterOperation("bogus"); got != OpEquals {
		t.Errorf("got %q, want equals", got)
	}
}
