package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable_RowNumbersSkipBlankLines(t *testing.T) {
	lines := []Line{
		{Number: 1, Cells: []string{"Meter", "Date", "Value"}},
		{Number: 2, Cells: []string{"Z-1", "15.01.2024", "10"}},
		{Number: 3, Cells: []string{"", " ", ""}},
		{Number: 4, Cells: []string{"Z-2", "16.01.2024", "11"}},
	}

	table, err := BuildTable("readings.csv", lines)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].RowNumber)
	assert.Equal(t, 4, table.Rows[1].RowNumber)
	assert.Equal(t, "Z-2", table.Rows[1].Cell("Meter"))
	assert.Equal(t, "readings.csv", table.SourceName)
}

func TestBuildTable_PadsShortRowsAndIgnoresExtraCells(t *testing.T) {
	table, err := BuildTable("x.csv", []Line{
		{Number: 1, Cells: []string{"A", "B"}},
		{Number: 2, Cells: []string{"1"}},
		{Number: 3, Cells: []string{"1", "2", "3"}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "1", "B": ""}, table.Rows[0].Cells)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, table.Rows[1].Cells)
}

func TestBuildTable_TooFewRows(t *testing.T) {
	_, err := BuildTable("only-header.csv", []Line{
		{Number: 1, Cells: []string{"A", "B"}},
		{Number: 2, Cells: []string{"", ""}},
	})

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "only-header.csv", decodeErr.Name)
}

func TestBuildTable_DuplicateHeaders(t *testing.T) {
	table, err := BuildTable("dup.csv", []Line{
		{Number: 1, Cells: []string{"Datum", "Stand", "Datum", "", "Datum"}},
		{Number: 2, Cells: []string{"01.01.2024", "5", "02.01.2024", "x", "03.01.2024"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Datum", "Stand", "Datum (2)", "Column_4", "Datum (3)"}, table.Headers)
	assert.Equal(t, []string{"Datum"}, table.DuplicateHeaders)
	assert.Equal(t, "01.01.2024", table.Rows[0].Cell("Datum"))
	assert.Equal(t, "02.01.2024", table.Rows[0].Cell("Datum (2)"))
	assert.True(t, table.HasHeader("Datum (3)"))
}
