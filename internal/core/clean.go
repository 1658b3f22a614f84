package core

// clean.go normalizes raw upload bytes and cell text before parsing.
//
// Spreadsheet exports from Windows tools often start with a UTF-8 BOM and
// may contain stray Latin-1 bytes. Both are handled here so parsers only
// ever see valid UTF-8.

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

// cleanInput applies BOM stripping and UTF-8 sanitation.
func cleanInput(data []byte) []byte {
	return sanitizeUTF8(stripBOM(data))
}

// CleanCell trims whitespace and spreadsheet formula quoting from a cell.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader lowercases a header and drops separators so that
// "Device Identifier", "device_identifier" and "deviceIdentifier" compare equal.
func normalizeHeader(s string) string {
	s = strings.ToLower(CleanCell(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '_', '-', '.', '#':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
