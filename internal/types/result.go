package types

import "fmt"

// =============================================================================
// ROW STATUS
// =============================================================================

// RowStatus is the severity tier of a validated row.
type RowStatus string

const (
	// StatusValid rows are importable.
	StatusValid RowStatus = "valid"

	// StatusWarning rows parsed cleanly but cannot be imported yet
	// (the meter is unknown). They are excluded from the import.
	StatusWarning RowStatus = "warning"

	// StatusError rows are broken and can never be imported as-is.
	StatusError RowStatus = "error"
)

// =============================================================================
// ROW ISSUES
// =============================================================================

// IssueCode names the specific reason a row is not valid.
type IssueCode string

const (
	IssueMissingMeterNumber IssueCode = "missing_meter_number"
	IssueInvalidDate        IssueCode = "invalid_date"
	IssueInvalidValue       IssueCode = "invalid_reading_value"
	IssueMeterNotFound      IssueCode = "meter_not_found"
)

// Severity returns the status tier an issue code puts a row in.
func (c IssueCode) Severity() RowStatus {
	if c == IssueMeterNotFound {
		return StatusWarning
	}
	return StatusError
}

// Message returns the human-readable reason for the code.
func (c IssueCode) Message() string {
	switch c {
	case IssueMissingMeterNumber:
		return "missing meter number"
	case IssueInvalidDate:
		return "invalid date"
	case IssueInvalidValue:
		return "invalid reading value"
	case IssueMeterNotFound:
		return "meter not found"
	default:
		return string(c)
	}
}

// RowIssue is the reason attached to every warning or error row.
type RowIssue struct {
	Code IssueCode
}

// Reason returns the display text for the issue.
func (i RowIssue) Reason() string {
	return i.Code.Message()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult is the outcome of validating one RawRow.
//
// The status is derived from Issue, which makes the reason mandatory for
// warning and error rows and impossible for valid rows. Use the New*Result
// constructors; they enforce the per-status field invariants:
//   - valid   => NormalizedDate, NumericValue and ResolvedMeterID are present
//   - warning => date and value parsed, ResolvedMeterID absent
//   - error   => one of the error-tier issue codes
type ValidationResult struct {
	RowNumber int

	// MeterNumberRaw is the meter identifier exactly as found in the file.
	MeterNumberRaw string

	// NormalizedDate is the canonical YYYY-MM-DD date, "" when unparseable.
	NormalizedDate string

	// NumericValue is the parsed reading, nil when unparseable.
	NumericValue *float64

	// ResolvedMeterID is the directory ID of the meter, "" when unresolved.
	ResolvedMeterID string

	// Issue is nil for valid rows.
	Issue *RowIssue
}

// Status returns the severity tier of the row.
func (r ValidationResult) Status() RowStatus {
	if r.Issue == nil {
		return StatusValid
	}
	return r.Issue.Code.Severity()
}

// Reason returns the issue text, or "" for valid rows.
func (r ValidationResult) Reason() string {
	if r.Issue == nil {
		return ""
	}
	return r.Issue.Reason()
}

// Value returns the numeric value, or 0 when it is absent.
func (r ValidationResult) Value() float64 {
	if r.NumericValue == nil {
		return 0
	}
	return *r.NumericValue
}

// NewValidResult builds a result for an importable row.
func NewValidResult(rowNumber int, meterRaw, date string, value float64, meterID string) ValidationResult {
	if date == "" || meterID == "" {
		panic(fmt.Sprintf("types: valid result for row %d requires date and meter id", rowNumber))
	}
	v := value
	return ValidationResult{
		RowNumber:       rowNumber,
		MeterNumberRaw:  meterRaw,
		NormalizedDate:  date,
		NumericValue:    &v,
		ResolvedMeterID: meterID,
	}
}

// NewWarningResult builds a result for a row whose meter is not in the directory.
func NewWarningResult(rowNumber int, meterRaw, date string, value float64) ValidationResult {
	if date == "" {
		panic(fmt.Sprintf("types: warning result for row %d requires a parsed date", rowNumber))
	}
	v := value
	return ValidationResult{
		RowNumber:      rowNumber,
		MeterNumberRaw: meterRaw,
		NormalizedDate: date,
		NumericValue:   &v,
		Issue:          &RowIssue{Code: IssueMeterNotFound},
	}
}

// NewErrorResult builds a result for a row that failed an error-tier check.
// date and value carry whatever could still be parsed, for display only.
func NewErrorResult(rowNumber int, meterRaw string, code IssueCode, date string, value *float64, meterID string) ValidationResult {
	if code.Severity() != StatusError {
		panic(fmt.Sprintf("types: %s is not an error-tier issue", code))
	}
	return ValidationResult{
		RowNumber:       rowNumber,
		MeterNumberRaw:  meterRaw,
		NormalizedDate:  date,
		NumericValue:    value,
		ResolvedMeterID: meterID,
		Issue:           &RowIssue{Code: code},
	}
}

// FilterByStatus returns the results with the given status, preserving order.
func FilterByStatus(results []ValidationResult, status RowStatus) []ValidationResult {
	out := make([]ValidationResult, 0, len(results))
	for _, r := range results {
		if r.Status() == status {
			out = append(out, r)
		}
	}
	return out
}
