package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestCheckExtension(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"devices.csv", false},
		{"DEVICES.CSV", false},
		{"book.xlsx", false},
		{"legacy.XLS", false},
		{"notes.pdf", true},
		{"csv", true},
		{"archive.csv.zip", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExtension(tt.name)
			if tt.wantErr && !errors.Is(err, ErrInvalidFileFormat) {
				t.Errorf("CheckExtension(%q) = %v, want ErrInvalidFileFormat", tt.name, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckExtension(%q) = %v, want nil", tt.name, err)
			}
		})
	}
}

func TestCSVParser_HeaderMapping(t *testing.T) {
	data := []byte("\xEF\xBB\xBFDevice Identifier,manufacturer_name,Product,Model #,Single Use,sterilized,Production Date,expirationDate,Unknown,Locked\n" +
		"UDI-10001-A,Acme,Widget,A1,yes,0,2023-01-01,2025-01-01,ignored,true\n" +
		",,,,,,,,,\n" +
		"UDI-10002-B,\"Abbott, Inc\",Pump,B2,maybe,TRUE,2023-01-01,2022-01-01,x,no\n")

	records, perrs, err := CSVParser{}.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (blank row skipped)", len(records))
	}

	r := records[0]
	if r.DeviceIdentifier != "UDI-10001-A" || r.ManufacturerName != "Acme" || r.ProductName != "Widget" || r.ModelNumber != "A1" {
		t.Errorf("record 0 text fields = %+v", r)
	}
	if !r.SingleUse || r.Sterilized || !r.IsLocked {
		t.Errorf("record 0 booleans singleUse=%v sterilized=%v locked=%v", r.SingleUse, r.Sterilized, r.IsLocked)
	}
	if r.Status != StatusPending || r.ID == "" {
		t.Errorf("parsed record should be pending with an id: %+v", r)
	}
	if records[1].ManufacturerName != "Abbott, Inc" {
		t.Errorf("quoted field = %q", records[1].ManufacturerName)
	}
	if !records[1].Sterilized {
		t.Error("TRUE should parse as true")
	}

	if len(perrs) != 1 || perrs[0].Column != FieldSingleUse || perrs[0].Row != 4 {
		t.Errorf("parse errors = %+v, want one singleUse error on row 4", perrs)
	}
}

func TestCSVParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty", "", ErrEmptyFile},
		{"only BOM", "\xEF\xBB\xBF", ErrEmptyFile},
		{"header only", "deviceIdentifier,productName\n", ErrEmptyFile},
		{"no recognized headers", "foo,bar\n1,2\n", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CSVParser{}.Parse(context.Background(), []byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCSVParser_InvalidUTF8(t *testing.T) {
	data := []byte("deviceIdentifier,manufacturerName,productName\nUDI-10001,Caf\xe9,Widget\n")
	records, _, err := CSVParser{}.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if records[0].ManufacturerName != "Caf\uFFFD" {
		t.Errorf("ManufacturerName = %q", records[0].ManufacturerName)
	}
}

func TestXLSXParser(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Device Identifier", "Manufacturer", "Product", "Contains Latex", "Lot #"},
		{"UDI-20001-X", "GE Healthcare", "VitaSense Mini", "true", "LOT-0001"},
		{"UDI-20002-Y", "Siemens Healthineers", "NeuroScan XL", "false", "LOT-0002"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records, perrs, err := XLSXParser{}.Parse(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(perrs) != 0 {
		t.Errorf("parse errors = %v", perrs)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if !records[0].ContainsLatex || records[0].LotNumber != "LOT-0001" {
		t.Errorf("record 0 = %+v", records[0])
	}
}

func TestXLSXParser_RejectsGarbage(t *testing.T) {
	_, _, err := XLSXParser{}.Parse(context.Background(), []byte("not a zip"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParserFor(t *testing.T) {
	if _, ok := ParserFor("a.csv", ParseModeMock, 5).(MockParser); !ok {
		t.Error("mock mode should always use MockParser")
	}
	if _, ok := ParserFor("a.CSV", ParseModeParse, 5).(CSVParser); !ok {
		t.Error("csv in parse mode should use CSVParser")
	}
	if _, ok := ParserFor("a.xlsx", ParseModeParse, 5).(XLSXParser); !ok {
		t.Error("xlsx in parse mode should use XLSXParser")
	}

	_, _, err := ParserFor("a.xls", ParseModeParse, 5).Parse(context.Background(), []byte{1})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("legacy xls error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestMockParser(t *testing.T) {
	records, _, err := MockParser{Count: 7, Seed: 3}.Parse(context.Background(), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 7 {
		t.Errorf("len = %d, want 7", len(records))
	}
	for _, r := range records {
		if r.Status != StatusPending {
			t.Errorf("mock record status = %q, want pending", r.Status)
		}
	}
}

func TestGenerateMockRecords_HasIssues(t *testing.T) {
	validated := ValidateRecords(GenerateMockRecords(20, 1))
	invalid, warning := CountIssues(validated)
	if invalid == 0 {
		t.Error("demo batch should contain invalid records")
	}
	if warning == 0 {
		t.Error("demo batch should contain warnings")
	}
	if validated[0].ManufacturerName != "" {
		t.Error("record 0 should have an empty manufacturer")
	}
	if validated[0].IsLocked || !validated[1].IsLocked {
		t.Error("every fourth record starts unlocked")
	}
}

func TestCleanCell(t *testing.T) {
	tests := map[string]string{
		"  plain  ":           "plain",
		`="00123"`:            "00123",
		"a\u00a0b":            "a b",
		"\u00a0\u00a0x\u00a0": "x",
	}
	for in, want := range tests {
		if got := CleanCell(in); got != want {
			t.Errorf("CleanCell(%q) = %q, want %q", in, got, want)
		}
	}
}
