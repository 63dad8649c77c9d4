// =============================================================================
// Meter Reading Import - Example File Writer
// =============================================================================
//
// This module generates the downloadable example file that documents the
// expected upload shape. The import pipeline never reads it.
//
// LAYOUT:
//
//   Zählernummer | Datum      | Zählerstand | Notiz
//   12345678     | 15.01.2024 | 12345,67    | Ablesung Keller
//   87654321     | 15.01.2024 | 9876,5      |
//
// FORMATS:
//   - csv:  UTF-8 with BOM, ";" separated, so spreadsheet programs keep the
//           umlauts and split the columns
//   - xlsx: one sheet with a bold header row
//
// =============================================================================

package sample

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an example file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the sheet of the xlsx example.
const SheetName = "Zählerstände"

// Headers are the example column headers.
var Headers = []string{"Zählernummer", "Datum", "Zählerstand", "Notiz"}

// Rows are the example data rows.
var Rows = [][]string{
	{"12345678", "15.01.2024", "12345,67", "Ablesung Keller"},
	{"87654321", "15.01.2024", "9876,5", ""},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFormat accepts "csv" or "xlsx" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown example format %q (want csv or xlsx)", s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write writes the example file in the given format.
func Write(w io.Writer, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data = CSV()
	case FormatXLSX:
		data, err = XLSX()
	default:
		err = fmt.Errorf("unknown example format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// CSV returns the example as semicolon separated UTF-8 text.
func CSV() []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString(strings.Join(Headers, ";"))
	buf.WriteString("\r\n")
	for _, row := range Rows {
		buf.WriteString(strings.Join(row, ";"))
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

// XLSX returns the example as a workbook.
func XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, row := range Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
