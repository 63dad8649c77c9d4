package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TABLE ASSEMBLY
// =============================================================================
//
// Both source formats (delimited text and workbooks) are first reduced to a
// list of physical lines with their cells. BuildTable turns that list into
// the canonical Table:
//
//   1. Lines whose cells are all empty after trimming are dropped. They never
//      receive a row number, and they never shift the numbers of later lines.
//   2. The first remaining line is the header row.
//   3. Every following line becomes a RawRow keyed by header name. Short lines
//      are padded with "", cells beyond the last header are ignored.
//
// DUPLICATE HEADERS:
//   The first occurrence of a header keeps its name. Later occurrences are
//   renamed "<name> (2)", "<name> (3)", ... so that every column can still be
//   mapped manually. The original names are reported in Table.DuplicateHeaders.
//
// =============================================================================

// Line is one physical line of a source file, already split into cells.
type Line struct {
	// Number is the 1-based physical line number in the source.
	Number int

	Cells []string
}

// BuildTable assembles a Table from the physical lines of a source file.
//
// RETURNS:
//   - The assembled table.
//   - A *DecodeError if fewer than two non-blank lines remain.
func BuildTable(source string, lines []Line) (*Table, error) {
	kept := make([]Line, 0, len(lines))
	for _, line := range lines {
		if isLineBlank(line.Cells) {
			continue
		}
		kept = append(kept, line)
	}

	if len(kept) < 2 {
		return nil, &DecodeError{
			Name:   source,
			Reason: fmt.Sprintf("need a header row and at least one data row, found %d non-blank row(s)", len(kept)),
		}
	}

	headers, duplicates := cleanHeaders(kept[0].Cells)

	table := &Table{
		Headers:          headers,
		Rows:             make([]RawRow, 0, len(kept)-1),
		DuplicateHeaders: duplicates,
		SourceName:       source,
	}

	for _, line := range kept[1:] {
		cells := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(line.Cells) {
				cells[header] = strings.TrimSpace(line.Cells[i])
			} else {
				cells[header] = ""
			}
		}
		table.Rows = append(table.Rows, RawRow{RowNumber: line.Number, Cells: cells})
	}

	return table, nil
}

// cleanHeaders trims header names, names empty headers by position and
// disambiguates duplicates.
func cleanHeaders(raw []string) ([]string, []string) {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	var duplicates []string

	for i, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		seen[header]++
		if n := seen[header]; n > 1 {
			if n == 2 {
				duplicates = append(duplicates, header)
			}
			renamed := fmt.Sprintf("%s (%d)", header, n)
			// A later literal header could already use the generated name.
			for seen[renamed] > 0 {
				n++
				renamed = fmt.Sprintf("%s (%d)", header, n)
			}
			seen[renamed]++
			header = renamed
		}

		headers[i] = header
	}

	return headers, duplicates
}

// isLineBlank reports whether every cell is empty after trimming.
func isLineBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
