package types

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
//
// Fatal to the current step:
//   - FileError     : unsupported extension or oversize file
//   - DecodeError   : content did not yield a header plus one data row
//   - MappingError  : a required field is unmapped or points at an unknown header
//
// Per row, informational (see RowIssue in result.go):
//   - error tier    : missing meter number, invalid date, invalid reading value
//   - warning tier  : meter not found
//
// Per row during import, counted but never fatal:
//   - PersistenceError
//
// =============================================================================

var (
	// ErrUnsupportedExtension is wrapped by FileError for rejected file types.
	ErrUnsupportedExtension = errors.New("unsupported file type")

	// ErrFileTooLarge is wrapped by FileError for files above the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoValidRows is returned when an import is requested without any valid row.
	ErrNoValidRows = errors.New("no valid rows to import")

	// ErrDuplicateReading is returned by a reading store when a reading for the
	// same meter and date already exists.
	ErrDuplicateReading = errors.New("reading already exists for meter and date")
)

// FileError rejects a file before any parsing is attempted.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q rejected: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// DecodeError reports content that could not be reduced to a header plus rows.
type DecodeError struct {
	Name   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not decode %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("could not decode %q: %s", e.Name, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MappingError blocks progression from the mapping step.
type MappingError struct {
	// Missing lists the required fields that are not mapped.
	Missing []Field

	// UnknownHeader is set when an override names a header the table does not have.
	UnknownHeader string
}

func (e *MappingError) Error() string {
	if e.UnknownHeader != "" {
		return fmt.Sprintf("column %q does not exist in the file", e.UnknownHeader)
	}
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("required fields not mapped: %s", strings.Join(names, ", "))
}

// PersistenceError wraps a failed delete or insert for a single row.
type PersistenceError struct {
	RowNumber int
	Op        string // "delete" or "insert"
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("row %d: %s failed: %v", e.RowNumber, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
