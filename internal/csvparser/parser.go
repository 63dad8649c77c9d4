// =============================================================================
// Meter Reading Import - Delimited Text Parser
// =============================================================================
//
// This module turns the raw bytes of a delimited text file (.csv, or any other
// extension configured as delimited text) into the canonical Table.
//
// FEATURES:
//   - Charset normalisation: a UTF-8 byte order mark is stripped, content that
//     is not valid UTF-8 is decoded with the configured legacy charset
//     (Windows-1252 by default, the usual export format of spreadsheet tools)
//   - Separator detection: ";" if it occurs anywhere in the content, else ","
//   - Line endings: "\n", "\r\n" and "\r" are all accepted
//   - Cell cleaning: surrounding whitespace and one pair of enclosing quote
//     characters are stripped from every cell
//
// LIMITATIONS:
//   - Separators inside quoted cells are not protected. Meter exports do not
//     quote-embed separators, and the line is always split first.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// DefaultEncoding is the charset assumed for content that is not valid UTF-8.
const DefaultEncoding = "windows-1252"

// utf8BOM is the UTF-8 byte order mark written by many spreadsheet exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how delimited text is parsed.
type Options struct {
	// Encoding is the fallback charset (WHATWG label, e.g. "windows-1252",
	// "iso-8859-15") for content that is not valid UTF-8.
	// Empty means DefaultEncoding.
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse decodes delimited text into a Table.
//
// PARAMETERS:
//   - name: The source file name, used in errors.
//   - data: The raw file content.
//   - opts: Parsing options.
//
// RETURNS:
//   - The decoded table.
//   - A *types.DecodeError if the content cannot be decoded or has fewer
//     than two non-blank lines.
//
// PARSING PROCESS:
//   1. Normalise the charset to UTF-8
//   2. Detect the separator
//   3. Split into physical lines, then each line into cells
//   4. Hand the lines to types.BuildTable for numbering and header handling
func Parse(name string, data []byte, opts Options) (*types.Table, error) {
	content, err := Normalize(data, opts.Encoding)
	if err != nil {
		return nil, &types.DecodeError{Name: name, Reason: "charset conversion failed", Err: err}
	}

	sep := DetectSeparator(content)

	physical := splitLines(content)
	lines := make([]types.Line, len(physical))
	for i, text := range physical {
		lines[i] = types.Line{Number: i + 1, Cells: SplitLine(text, sep)}
	}

	return types.BuildTable(name, lines)
}

// Normalize converts raw content to a UTF-8 string.
//
// Valid UTF-8 is used as-is after removing a leading byte order mark.
// Anything else is decoded with the named charset.
func Normalize(data []byte, encodingName string) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", encodingName, err)
	}
	return string(decoded), nil
}

// lookupEncoding resolves a WHATWG charset label.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		return charmap.Windows1252, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return enc, nil
}

// DetectSeparator returns ';' if the content contains one anywhere, else ','.
func DetectSeparator(content string) rune {
	if strings.ContainsRune(content, ';') {
		return ';'
	}
	return ','
}

// SplitLine splits one physical line on sep and cleans every cell.
func SplitLine(line string, sep rune) []string {
	parts := strings.Split(line, string(sep))
	for i, part := range parts {
		parts[i] = cleanCell(part)
	}
	return parts
}

// cleanCell trims whitespace and strips one pair of enclosing quotes.
//
// CLEANING OPERATIONS:
//   - `  "Z-100" ` -> `Z-100`
//   - `'12,5'`     -> `12,5`
//   - `""x""`      -> `"x"` (only one pair is removed)
func cleanCell(cell string) string {
	cell = strings.TrimSpace(cell)
	if len(cell) >= 2 {
		first, last := cell[0], cell[len(cell)-1]
		if first == last && (first == '"' || first == '\'') {
			cell = strings.TrimSpace(cell[1 : len(cell)-1])
		}
	}
	return cell
}

// splitLines splits content on "\r\n", "\n" or a lone "\r".
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
