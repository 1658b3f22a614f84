package core

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportJSON(t *testing.T) {
	records := ValidateRecords(GenerateMockRecords(3, 7))

	var buf bytes.Buffer
	if err := ExportJSON(&buf, records); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[\n  {\n    \"id\"") {
		t.Errorf("export is not two-space indented:\n%s", buf.String()[:40])
	}

	var got []Record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 3 || got[1].DeviceIdentifier != records[1].DeviceIdentifier {
		t.Errorf("decoded %d records", len(got))
	}
}

func TestExportJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, nil); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("ExportJSON(nil) = %q, want []", got)
	}
}

func TestExportXLSX_ReadsBack(t *testing.T) {
	r := validRecord()
	r.SingleUse = true
	r.IsLocked = true
	bad := validRecord()
	bad.ID = "r2"
	bad.ProductName = ""
	records := ValidateRecords([]Record{r, bad})

	var buf bytes.Buffer
	if err := ExportXLSX(&buf, records); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != "UDI Records" {
		t.Errorf("sheet = %q", name)
	}
	rows, err := f.GetRows("UDI Records")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	header := rows[0]
	if header[0] != "Device Identifier" || header[len(header)-1] != "Warnings" {
		t.Errorf("header = %v", header)
	}
	errCol := len(header) - 2
	if len(rows[2]) <= errCol || rows[2][errCol] != "Product Name is required" {
		t.Errorf("errors cell = %v", rows[2])
	}

	// The exported workbook is itself a valid upload.
	parsed, _, err := XLSXParser{}.Parse(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("Parse(export) error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d records", len(parsed))
	}
	if !parsed[0].SingleUse || !parsed[0].IsLocked || parsed[0].DeviceIdentifier != r.DeviceIdentifier {
		t.Errorf("round trip record = %+v", parsed[0])
	}
}
