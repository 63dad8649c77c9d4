// =============================================================================
// Meter Reading Import - Row Validator
// =============================================================================
//
// This module classifies every decoded row into one of three tiers:
//
//   valid    the row can be imported
//   warning  the row is well-formed but its meter is not in the directory;
//            it is kept for display and excluded from the import
//   error    the row is broken (missing meter number, bad date, bad value)
//
// CHECK ORDER (the first failing check decides the issue):
//   1. Meter number cell is non-empty           -> missing meter number
//   2. Date parses as DD.MM.YYYY or YYYY-MM-DD  -> invalid date
//   3. Value parses as a decimal number         -> invalid reading value
//   4. Meter number exists in the directory     -> meter not found (warning)
//
// Every field is still parsed for display even when an earlier check failed.
//
// =============================================================================

package validation

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/mapping"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// isoLayout is the canonical date form stored in results.
const isoLayout = "2006-01-02"

// dateLayouts are tried in order. "2.1.2006" accepts both padded and
// unpadded day and month ("15.01.2024", "5.1.2024").
var dateLayouts = []string{
	"2.1.2006",
	isoLayout,
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks rows against a fixed meter directory snapshot.
type Validator struct {
	// meters maps lower-cased meter number -> meter ID.
	meters map[string]string
	logger *zap.Logger
}

// New creates a Validator for the given directory snapshot.
//
// Meter numbers are matched case-insensitively. When the directory contains
// the same number twice (ignoring case), the first entry wins.
func New(directory []types.Meter, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}

	index := make(map[string]string, len(directory))
	for _, m := range directory {
		key := strings.ToLower(m.MeterNumber)
		if _, exists := index[key]; !exists {
			index[key] = m.ID
		}
	}

	return &Validator{meters: index, logger: logger}
}

// Validate classifies every row of the table, preserving row order.
//
// RETURNS:
//   - One result per row.
//   - A *types.MappingError if a required field is not mapped.
func (v *Validator) Validate(table *types.Table, m types.ColumnMapping) ([]types.ValidationResult, error) {
	if err := mapping.Check(m); err != nil {
		return nil, err
	}

	results := make([]types.ValidationResult, 0, len(table.Rows))
	for _, row := range table.Rows {
		results = append(results, v.ValidateRow(row, m))
	}

	v.logger.Debug("rows validated",
		zap.String("file", table.SourceName),
		zap.Int("rows", len(results)),
	)

	return results, nil
}

// ValidateRow classifies a single row.
func (v *Validator) ValidateRow(row types.RawRow, m types.ColumnMapping) types.ValidationResult {
	meterRaw := row.Cell(m.MeterNumber)
	date, dateOK := ParseDate(row.Cell(m.Date))
	value, valueOK := ParseValue(row.Cell(m.Value))

	var valuePtr *float64
	if valueOK {
		valuePtr = &value
	}

	meterID := ""
	if meterRaw != "" {
		meterID = v.meters[strings.ToLower(meterRaw)]
	}

	switch {
	case meterRaw == "":
		return types.NewErrorResult(row.RowNumber, meterRaw, types.IssueMissingMeterNumber, date, valuePtr, "")
	case !dateOK:
		return types.NewErrorResult(row.RowNumber, meterRaw, types.IssueInvalidDate, "", valuePtr, meterID)
	case !valueOK:
		return types.NewErrorResult(row.RowNumber, meterRaw, types.IssueInvalidValue, date, nil, meterID)
	case meterID == "":
		return types.NewWarningResult(row.RowNumber, meterRaw, date, value)
	default:
		return types.NewValidResult(row.RowNumber, meterRaw, date, value, meterID)
	}
}

// =============================================================================
// FIELD PARSERS
// =============================================================================

// ParseDate parses a day.month.year or ISO date and returns it as YYYY-MM-DD.
//
// Impossible calendar dates such as 31.02.2024 are rejected.
func ParseDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(isoLayout), true
		}
	}
	return "", false
}

// ParseValue parses a reading with either a decimal comma or a decimal point.
//
// The comma is normalised to a point, then the value must be a plain decimal
// literal. NaN, infinities, hexadecimal forms and values outside the float64
// range are rejected.
func ParseValue(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
	if err != nil {
		return 0, false
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
