package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_StatusFollowsIssue(t *testing.T) {
	valid := NewValidResult(2, "Z-1", "2024-01-15", 12.5, "m1")
	assert.Equal(t, StatusValid, valid.Status())
	assert.Empty(t, valid.Reason())
	require.NotNil(t, valid.NumericValue)
	assert.Equal(t, 12.5, valid.Value())

	warning := NewWarningResult(3, "Z-9", "2024-01-15", 1)
	assert.Equal(t, StatusWarning, warning.Status())
	assert.Equal(t, "meter not found", warning.Reason())
	assert.Empty(t, warning.ResolvedMeterID)

	bad := NewErrorResult(4, "", IssueMissingMeterNumber, "2024-01-15", nil, "")
	assert.Equal(t, StatusError, bad.Status())
	assert.Equal(t, "missing meter number", bad.Reason())
}

func TestNewErrorResult_RejectsWarningCode(t *testing.T) {
	assert.Panics(t, func() {
		NewErrorResult(2, "Z-1", IssueMeterNotFound, "", nil, "")
	})
}

func TestNewValidResult_RequiresMeterID(t *testing.T) {
	assert.Panics(t, func() {
		NewValidResult(2, "Z-1", "2024-01-15", 1, "")
	})
}

func TestColumnMapping_Missing(t *testing.T) {
	m := ColumnMapping{Date: "Datum"}
	assert.Equal(t, []Field{FieldMeterNumber, FieldValue}, m.Missing())
	assert.False(t, m.Complete())

	m.Set(FieldMeterNumber, "Zählernummer")
	m.Set(FieldValue, "Stand")
	assert.True(t, m.Complete())
	assert.Equal(t, "Stand", m.Get(FieldValue))
}

func TestParseField(t *testing.T) {
	f, ok := ParseField("Meter")
	require.True(t, ok)
	assert.Equal(t, FieldMeterNumber, f)

	_, ok = ParseField("unit")
	assert.False(t, ok)
}

func TestErrorsUnwrap(t *testing.T) {
	err := error(&FileError{Name: "a.pdf", Err: ErrUnsupportedExtension})
	assert.True(t, errors.Is(err, ErrUnsupportedExtension))

	perr := error(&PersistenceError{RowNumber: 3, Op: "insert", Err: ErrDuplicateReading})
	assert.True(t, errors.Is(perr, ErrDuplicateReading))
	assert.Contains(t, perr.Error(), "row 3")

	merr := &MappingError{Missing: []Field{FieldDate, FieldValue}}
	assert.Equal(t, "required fields not mapped: date, value", merr.Error())
}
