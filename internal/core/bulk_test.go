package core

import "testing"

func TestApplyBulkEdit_SkipsLocked(t *testing.T) {
	r1 := Record{ID: "r1", DeviceIdentifier: "UDI-00001", ManufacturerName: "Old", ProductName: "P", IsLocked: true}
	r2 := Record{ID: "r2", DeviceIdentifier: "UDI-00002", ManufacturerName: "", ProductName: "P", Status: StatusInvalid}

	res := ApplyBulkEdit([]Record{r1, r2}, FieldManufacturerName, "NewCo")

	if res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("Updated=%d Skipped=%d, want 1/1", res.Updated, res.Skipped)
	}
	if res.Records[0].ManufacturerName != "Old" {
		t.Errorf("locked record changed: %q", res.Records[0].ManufacturerName)
	}
	if res.Records[1].ManufacturerName != "NewCo" {
		t.Errorf("unlocked record = %q", res.Records[1].ManufacturerName)
	}
	if res.Records[1].Status != StatusValid {
		t.Errorf("unlocked record not re-validated: %q", res.Records[1].Status)
	}
	if res.Records[0].ID != "r1" || res.Records[1].ID != "r2" {
		t.Error("order not preserved")
	}
}

func TestApplyBulkEdit_Coercion(t *testing.T) {
	in := []Record{{ID: "a"}, {ID: "b", Sterilized: true}}

	res := ApplyBulkEdit(in, FieldSterilized, "true")
	for _, r := range res.Records {
		if !r.Sterilized {
			t.Errorf("%s Sterilized = false", r.ID)
		}
	}

	res = ApplyBulkEdit(in, FieldSterilized, "TRUE")
	for _, r := range res.Records {
		if r.Sterilized {
			t.Errorf("%s Sterilized = true for non-exact value", r.ID)
		}
	}

	res = ApplyBulkEdit(in, FieldProductionDate, "not-a-date")
	if res.Records[0].ProductionDate != "not-a-date" {
		t.Error("date column should store the raw value")
	}
	if errs, _ := IssuesFor(res.Records[0], FieldProductionDate); len(errs) == 0 {
		t.Error("malformed date not flagged after bulk edit")
	}
}

func TestApplyBulkEdit_InvalidField(t *testing.T) {
	in := []Record{{ID: "a", ProductName: "x"}}
	for _, field := range []FieldKey{"", "nope", FieldStatus, FieldID} {
		res := ApplyBulkEdit(in, field, "v")
		if res.Updated != 0 || res.Skipped != 0 {
			t.Errorf("field %q: Updated=%d Skipped=%d", field, res.Updated, res.Skipped)
		}
		if res.Records[0].ProductName != "x" {
			t.Errorf("field %q mutated record", field)
		}
	}
}

func TestApplyBulkEdit_DoesNotAliasInput(t *testing.T) {
	in := []Record{{ID: "a", ProductName: "x"}}
	_ = ApplyBulkEdit(in, FieldProductName, "y")
	if in[0].ProductName != "x" {
		t.Error("input slice modified")
	}
}

func TestUnlockedCount(t *testing.T) {
	rs := []Record{{IsLocked: true}, {}, {}}
	if got := UnlockedCount(rs); got != 2 {
		t.Errorf("UnlockedCount() = %d, want 2", got)
	}
}
