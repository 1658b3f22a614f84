package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// ExportJSONFileName is the download name for JSON exports.
	ExportJSONFileName = "udi-data-export.json"
	// ExportXLSXFileName is the download name for spreadsheet exports.
	ExportXLSXFileName = "udi-data-export.xlsx"

	exportSheet = "UDI Records"
)

// ExportJSON writes records as a JSON array indented with two spaces.
func ExportJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportXLSX writes records to a single-sheet workbook with a bold header
// row. Columns follow the grid order, followed by lock state and issues.
func ExportXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := make([]any, 0, len(columns)+3)
	for _, c := range columns {
		headers = append(headers, c.Label)
	}
	headers = append(headers, "Locked", "Errors", "Warnings")

	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		row := make([]any, 0, len(headers))
		for _, c := range columns {
			if c.Type == FieldBool {
				row = append(row, FieldValue(r, c.Key) == "true")
				continue
			}
			row = append(row, FieldValue(r, c.Key))
		}
		row = append(row, r.IsLocked, joinIssues(r.Errors), joinIssues(r.Warnings))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, c := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(exportSheet, name, name, widthChars(c.Width))
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func joinIssues(issues []Issue) string {
	var s string
	for i, is := range issues {
		if i > 0 {
			s += "; "
		}
		s += is.Message
	}
	return s
}

// widthChars converts a CSS pixel width to an approximate column width.
func widthChars(px string) float64 {
	var n int
	if _, err := fmt.Sscanf(px, "%dpx", &n); err != nil || n <= 0 {
		return 15
	}
	return float64(n) / 7
}
