package core

// error_messages.go maps technical errors to user-facing messages with
// support codes.
//
// # Error Codes Reference
//
// File errors (FILE001-FILE099):
//
//	FILE001 - Unsupported file type (anything but .csv, .xlsx, .xls)
//	FILE002 - File exceeds the configured size limit
//	FILE003 - File has no data rows
//	FILE004 - Accepted extension that cannot be read (legacy .xls, corrupt workbook)
//	FILE005 - No file was attached to the request
//	FILE006 - Malformed CSV content
//
// Validation errors (VAL001-VAL099):
//
//	VAL001 - Import blocked by invalid records
//	VAL002 - Record, history entry or GMDN row not found
//
// Ingest errors (UPL001-UPL099):
//
//	UPL001 - Superseded by a newer upload
//	UPL002 - Too many ingests in progress
//	UPL003 - Request cancelled
//	UPL004 - Request timed out
//
// History errors (HIST001-HIST099):
//
//	HIST001 - History storage unreachable
//
// Request errors (REQ001-REQ099):
//
//	REQ001 - Malformed request body or parameters
//
// Rate limiting (RATE001), and ERR000 as the fallback.
//
// Sentinel errors are matched first with errors.Is; anything else falls
// back to case-insensitive substring patterns. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrInvalidFileFormat, UserMessage{
		Message: "Invalid file format",
		Action:  "Please upload a CSV or Excel file (.csv, .xlsx, .xls)",
		Code:    "FILE001",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE002",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row and data rows",
		Code:    "FILE003",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "The file could not be read",
		Action:  "Save the workbook as .xlsx or .csv and try again",
		Code:    "FILE004",
	}},
	{ErrImportBlocked, UserMessage{
		Message: "Import blocked: some records are invalid",
		Action:  "Fix all errors before importing",
		Code:    "VAL001",
	}},
	{ErrRecordNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Refresh the page and try again",
		Code:    "VAL002",
	}},
	{ErrIngestSuperseded, UserMessage{
		Message: "A newer upload replaced this one",
		Action:  "The most recent upload is being processed",
		Code:    "UPL001",
	}},
	{ErrTooManyIngests, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL003",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL004",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that arrive without a sentinel in their chain,
// e.g. text produced by other layers.
var errorPatterns = []errorPattern{
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE005",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE006",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Upload history is temporarily unavailable",
			Action:  "Your data is unaffected; history will resume when storage is reachable",
			Code:    "HIST001",
		},
	},
	{
		pattern: "history",
		msg: UserMessage{
			Message: "Upload history is temporarily unavailable",
			Action:  "Your data is unaffected; history will resume when storage is reachable",
			Code:    "HIST001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Invalid request",
			Action:  "Check the request parameters and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check the logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var blocked *ImportBlockedError
	if errors.As(err, &blocked) {
		return UserMessage{
			Message: fmt.Sprintf("Cannot import: %d invalid records found", blocked.InvalidCount),
			Action:  "Fix all errors before importing",
			Code:    "VAL001",
		}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
