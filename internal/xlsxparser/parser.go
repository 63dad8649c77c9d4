// =============================================================================
// Meter Reading Import - Workbook Parser
// =============================================================================
//
// This module turns the raw bytes of a workbook (.xlsx, .xls) into the
// canonical Table.
//
// WORKBOOK RULES:
//   - Only the first sheet is read; every other sheet is ignored
//   - The first physical row of that sheet holds the headers
//   - Later rows are mapped to headers by column position
//   - Cells are read as displayed text, so a date cell must be formatted as
//     DD.MM.YYYY or YYYY-MM-DD in the workbook to validate
//
// LIMITATIONS:
//   - Legacy binary .xls files are accepted by extension but excelize only
//     reads the Office Open XML format. Such files fail with a DecodeError.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// Parse reads the first sheet of a workbook into a Table.
//
// PARAMETERS:
//   - name: The source file name, used in errors.
//   - data: The raw workbook bytes.
//
// RETURNS:
//   - The decoded table.
//   - A *types.DecodeError if the workbook cannot be opened, has no sheet,
//     or has fewer than two non-blank rows.
func Parse(name string, data []byte) (*types.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &types.DecodeError{Name: name, Reason: "not a readable workbook", Err: err}
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &types.DecodeError{Name: name, Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &types.DecodeError{
			Name:   name,
			Reason: fmt.Sprintf("failed to read sheet %q", sheetName),
			Err:    err,
		}
	}

	// GetRows keeps empty rows between filled ones, so the slice index is
	// the physical row index.
	lines := make([]types.Line, len(rows))
	for i, row := range rows {
		lines[i] = types.Line{Number: i + 1, Cells: row}
	}

	return types.BuildTable(name, lines)
}
