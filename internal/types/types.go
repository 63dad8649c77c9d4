// =============================================================================
// Meter Reading Import - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the import
// pipeline. Keeping the types here avoids import cycles between:
//   - decoder / csvparser / xlsxparser
//   - mapping
//   - validation
//   - stats
//   - importer
//   - wizard
//
// =============================================================================

package types

import "strings"

// =============================================================================
// DECODED TABLE
// =============================================================================

// RawRow is a single data row as it came out of the source file.
// A RawRow is created once at decode time and never modified afterwards.
type RawRow struct {
	// RowNumber is the 1-based physical line number in the source file.
	// The header occupies line 1, so the first data row is usually 2.
	// Blank rows are dropped without shifting the numbers of later rows.
	RowNumber int

	// Cells maps header name -> trimmed cell value.
	Cells map[string]string
}

// Cell returns the value of the named column, or "" if the column is unknown.
func (r RawRow) Cell(column string) string {
	if column == "" {
		return ""
	}
	return r.Cells[column]
}

// Table is the canonical header+rows form produced by the file decoder,
// regardless of whether the source was delimited text or a workbook.
type Table struct {
	// Headers are the trimmed header names in source column order.
	Headers []string

	// Rows contains every non-blank data row in source order.
	Rows []RawRow

	// DuplicateHeaders lists header names that occurred more than once.
	// Later occurrences are renamed "<name> (n)" in Headers.
	DuplicateHeaders []string

	// SourceName is the file name the table was decoded from.
	SourceName string
}

// HasHeader reports whether the table contains the named column.
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// Field identifies one of the canonical import fields.
type Field string

const (
	FieldMeterNumber Field = "meter_number"
	FieldDate        Field = "date"
	FieldValue       Field = "value"
	FieldNotes       Field = "notes"
)

// RequiredFields are the fields that must be mapped before validation.
var RequiredFields = []Field{FieldMeterNumber, FieldDate, FieldValue}

// AllFields lists every canonical field in display order.
var AllFields = []Field{FieldMeterNumber, FieldDate, FieldValue, FieldNotes}

// ParseField converts user input such as "meter" or "notes" into a Field.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meter", "meter_number", "meter-number", "meternumber":
		return FieldMeterNumber, true
	case "date":
		return FieldDate, true
	case "value", "reading":
		return FieldValue, true
	case "notes", "note":
		return FieldNotes, true
	default:
		return "", false
	}
}

// ColumnMapping associates each canonical field with a source header name.
// An empty string means the field is not mapped.
type ColumnMapping struct {
	MeterNumber string
	Date        string
	Value       string
	Notes       string
}

// Get returns the header mapped to the given field.
func (m ColumnMapping) Get(f Field) string {
	switch f {
	case FieldMeterNumber:
		return m.MeterNumber
	case FieldDate:
		return m.Date
	case FieldValue:
		return m.Value
	case FieldNotes:
		return m.Notes
	default:
		return ""
	}
}

// Set assigns a header to the given field.
func (m *ColumnMapping) Set(f Field, header string) {
	switch f {
	case FieldMeterNumber:
		m.MeterNumber = header
	case FieldDate:
		m.Date = header
	case FieldValue:
		m.Value = header
	case FieldNotes:
		m.Notes = header
	}
}

// Missing returns the required fields that are not mapped yet.
func (m ColumnMapping) Missing() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if m.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether all required fields are mapped.
func (m ColumnMapping) Complete() bool {
	return len(m.Missing()) == 0
}

// =============================================================================
// DIRECTORY AND PERSISTENCE RECORDS
// =============================================================================

// Meter is one entry of the read-only meter directory.
type Meter struct {
	ID          string `json:"id"`
	MeterNumber string `json:"meter_number"`
}

// Reading is a single measurement record written by the import executor.
type Reading struct {
	MeterID    string
	Value      float64
	Date       string // canonical YYYY-MM-DD
	Note       *string
	RecordedBy string
	BatchID    string
}

// ImportOutcome is the aggregate result of one import run.
// It is only ever mutated additively by the executor and frozen afterwards.
type ImportOutcome struct {
	// BatchID identifies the run; every inserted reading carries it.
	BatchID string

	SuccessCount int
	FailureCount int

	// ConflictCount is the part of FailureCount caused by an existing
	// reading for the same meter and date while overwrite was off.
	ConflictCount int
}

// Total returns the number of rows the executor processed.
func (o ImportOutcome) Total() int {
	return o.SuccessCount + o.FailureCount
}
