package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileFormat is returned for files whose extension is not .csv, .xlsx or .xls.
	ErrInvalidFileFormat = errors.New("invalid file format")

	// ErrUnsupportedFormat is returned when an accepted extension cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when a source exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned when a parsed source contains no data rows.
	ErrEmptyFile = errors.New("file is empty")

	// ErrImportBlocked is returned by Import while any record is invalid.
	ErrImportBlocked = errors.New("import blocked by invalid records")

	// ErrRecordNotFound is returned when an id does not name a record or history entry.
	ErrRecordNotFound = errors.New("record not found")

	// ErrIngestSuperseded is reported for ingests replaced by a newer request.
	ErrIngestSuperseded = errors.New("ingest superseded by a newer request")
)

// ImportBlockedError carries the number of invalid records that blocked an import.
type ImportBlockedError struct {
	InvalidCount int
}

func (e *ImportBlockedError) Error() string {
	return fmt.Sprintf("%d invalid records must be fixed before import", e.InvalidCount)
}

// Unwrap lets errors.Is match ErrImportBlocked.
func (e *ImportBlockedError) Unwrap() error {
	return ErrImportBlocked
}
