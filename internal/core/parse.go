package core

// parse.go turns uploaded file bytes into unvalidated records.
//
// Every parser shares one header mapping: a header cell matches a column
// when its normalized text equals the column key, the column label, or
// one of the aliases below. Unknown headers are ignored. Rows that are
// entirely blank are skipped.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ParseError describes a cell that could not be read. Row numbers are
// 1-based and count the header row.
type ParseError struct {
	Row     int      `json:"row"`
	Column  FieldKey `json:"column,omitempty"`
	Message string   `json:"message"`
}

func (e ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, %s: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Parser converts raw file content into records with status pending.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]Record, []ParseError, error)
}

// ParseMode selects how accepted files are turned into records.
type ParseMode string

const (
	// ParseModeMock ignores file content and generates records.
	ParseModeMock ParseMode = "mock"
	// ParseModeParse reads the file with the parser for its extension.
	ParseModeParse ParseMode = "parse"
)

var acceptedExtensions = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
	".xls":  {},
}

// CheckExtension accepts .csv, .xlsx and .xls names, case-insensitively.
func CheckExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := acceptedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q (supported formats: CSV, XLSX, XLS)", ErrInvalidFileFormat, name)
	}
	return nil
}

// ParserFor returns the parser for name under mode. The name must already
// have passed CheckExtension.
func ParserFor(name string, mode ParseMode, mockCount int) Parser {
	if mode != ParseModeParse {
		return MockParser{Count: mockCount}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return XLSXParser{}
	case ".xls":
		return legacyExcelParser{}
	default:
		return CSVParser{}
	}
}

var headerAliases = map[string]FieldKey{
	"di":               FieldDeviceIdentifier,
	"udi":              FieldDeviceIdentifier,
	"udidi":            FieldDeviceIdentifier,
	"deviceid":         FieldDeviceIdentifier,
	"primarydi":        FieldDeviceIdentifier,
	"manufacturername": FieldManufacturerName,
	"companyname":      FieldManufacturerName,
	"labeler":          FieldManufacturerName,
	"productname":      FieldProductName,
	"brandname":        FieldProductName,
	"model":            FieldModelNumber,
	"modelnumber":      FieldModelNumber,
	"versionmodel":     FieldModelNumber,
	"lot":              FieldLotNumber,
	"lotnumber":        FieldLotNumber,
	"batch":            FieldLotNumber,
	"serial":           FieldSerialNumber,
	"serialnumber":     FieldSerialNumber,
	"manufacturedate":  FieldProductionDate,
	"expirydate":       FieldExpirationDate,
	"expiry":           FieldExpirationDate,
	"latex":            FieldContainsLatex,
	"phthalate":        FieldContainsPhthalate,
	"locked":           LockStatusColumn,
	"islocked":         LockStatusColumn,
}

// headerIndex maps column position to field key.
type headerIndex map[int]FieldKey

func buildHeaderIndex(header []string) headerIndex {
	byName := make(map[string]FieldKey, len(columns)*2+len(headerAliases))
	for k, v := range headerAliases {
		byName[k] = v
	}
	for _, c := range columns {
		if !c.Editable {
			continue
		}
		byName[normalizeHeader(string(c.Key))] = c.Key
		byName[normalizeHeader(c.Label)] = c.Key
	}

	idx := make(headerIndex)
	seen := make(map[FieldKey]bool)
	for i, h := range header {
		key, ok := byName[normalizeHeader(h)]
		if !ok || seen[key] {
			continue
		}
		idx[i] = key
		seen[key] = true
	}
	return idx
}

// recordsFromRows maps a header row and data rows onto new records.
func recordsFromRows(ctx context.Context, rows [][]string) ([]Record, []ParseError, error) {
	start := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, ErrEmptyFile
	}

	idx := buildHeaderIndex(rows[start])
	if len(idx) == 0 {
		return nil, nil, fmt.Errorf("%w: header row has no recognized columns", ErrUnsupportedFormat)
	}

	var (
		records []Record
		perrs   []ParseError
	)
	for i := start + 1; i < len(rows); i++ {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		r := Record{ID: uuid.NewString(), Status: StatusPending}
		for pos, key := range idx {
			if pos >= len(row) {
				continue
			}
			raw := CleanCell(row[pos])
			if pe := assignCell(&r, key, raw); pe != nil {
				pe.Row = i + 1
				perrs = append(perrs, *pe)
			}
		}
		records = append(records, r)
	}

	if len(records) == 0 {
		return nil, perrs, ErrEmptyFile
	}
	return records, perrs, nil
}

// assignCell stores a parsed cell. Boolean cells accept common spreadsheet
// spellings; anything else is reported and read as false.
func assignCell(r *Record, key FieldKey, raw string) *ParseError {
	if key == LockStatusColumn {
		b, ok := parseBool(raw)
		r.IsLocked = b
		if !ok {
			return &ParseError{Column: key, Message: fmt.Sprintf("invalid boolean %q", raw)}
		}
		return nil
	}

	col, _ := ColumnByKey(key)
	if col.Type == FieldBool {
		b, ok := parseBool(raw)
		setField(r, key, fmt.Sprint(b))
		if !ok {
			return &ParseError{Column: key, Message: fmt.Sprintf("invalid boolean %q", raw)}
		}
		return nil
	}
	setField(r, key, raw)
	return nil
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1", "x":
		return true, true
	case "false", "no", "n", "0", "":
		return false, true
	default:
		return false, false
	}
}

// CSVParser reads comma-separated files. Quotes are parsed leniently and
// rows may have differing field counts.
type CSVParser struct{}

// Parse implements Parser.
func (CSVParser) Parse(ctx context.Context, data []byte) ([]Record, []ParseError, error) {
	data = cleanInput(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	return recordsFromRows(ctx, rows)
}

// XLSXParser reads the first worksheet of an Office Open XML workbook.
type XLSXParser struct{}

// Parse implements Parser.
func (XLSXParser) Parse(ctx context.Context, data []byte) ([]Record, []ParseError, error) {
	if len(data) == 0 {
		return nil, nil, ErrEmptyFile
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	for i := range rows {
		for j := range rows[i] {
			rows[i][j] = string(sanitizeUTF8([]byte(rows[i][j])))
		}
	}
	return recordsFromRows(ctx, rows)
}

// legacyExcelParser rejects binary .xls workbooks, which excelize cannot read.
type legacyExcelParser struct{}

func (legacyExcelParser) Parse(context.Context, []byte) ([]Record, []ParseError, error) {
	return nil, nil, fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx or .csv", ErrUnsupportedFormat)
}

// MockParser ignores the input and generates Count demo records.
type MockParser struct {
	Count int
	Seed  int64
}

// Parse implements Parser.
func (p MockParser) Parse(ctx context.Context, _ []byte) ([]Record, []ParseError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	n := p.Count
	if n <= 0 {
		n = DefaultMockRecordCount
	}
	seed := p.Seed
	if seed == 0 {
		seed = newSeed()
	}
	return GenerateMockRecords(n, seed), nil, nil
}
