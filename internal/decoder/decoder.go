// =============================================================================
// Meter Reading Import - File Decoder
// =============================================================================
//
// The decoder is the entry point of the pipeline. It applies the upfront file
// checks and dispatches to the right parser based on the file extension:
//
//   .xlsx, .xls               -> xlsxparser (first sheet only)
//   .csv and extra text types -> csvparser
//
// FILE CHECKS (before any parsing is attempted):
//   - The extension must be one of the accepted extensions (case-insensitive)
//   - The file must not exceed the size cap (5 MB by default)
//
// =============================================================================

package decoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/csvparser"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
	"github.com/ginjaninja78/meter-reading-import/internal/xlsxparser"
)

// DefaultMaxBytes is the default upload size cap (5 MB).
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// workbookExtensions are always routed to the workbook parser.
var workbookExtensions = map[string]bool{".xlsx": true, ".xls": true}

// DefaultTextExtensions are the delimited text extensions accepted by default.
var DefaultTextExtensions = []string{".csv"}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Decoder.
type Options struct {
	// MaxBytes is the size cap. Zero or negative means DefaultMaxBytes.
	MaxBytes int64

	// TextExtensions are the accepted delimited text extensions, e.g. ".csv",
	// ".txt". Empty means DefaultTextExtensions.
	TextExtensions []string

	// Encoding is the fallback charset for delimited text that is not UTF-8.
	Encoding string

	Logger *zap.Logger
}

// Decoder turns uploaded files into tables.
type Decoder struct {
	maxBytes       int64
	textExtensions map[string]bool
	encoding       string
	logger         *zap.Logger
}

// New creates a Decoder with the given options.
func New(opts Options) *Decoder {
	d := &Decoder{
		maxBytes:       opts.MaxBytes,
		textExtensions: make(map[string]bool),
		encoding:       opts.Encoding,
		logger:         opts.Logger,
	}
	if d.maxBytes <= 0 {
		d.maxBytes = DefaultMaxBytes
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	exts := opts.TextExtensions
	if len(exts) == 0 {
		exts = DefaultTextExtensions
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		d.textExtensions[ext] = true
	}

	return d
}

// MaxBytes returns the effective size cap.
func (d *Decoder) MaxBytes() int64 {
	return d.maxBytes
}

// Check applies the upfront extension and size checks.
//
// RETURNS:
//   - nil if the file may be decoded.
//   - A *types.FileError wrapping ErrUnsupportedExtension or ErrFileTooLarge.
func (d *Decoder) Check(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !workbookExtensions[ext] && !d.textExtensions[ext] {
		return &types.FileError{
			Name: name,
			Err:  fmt.Errorf("%w: %q", types.ErrUnsupportedExtension, ext),
		}
	}
	if size > d.maxBytes {
		return &types.FileError{
			Name: name,
			Err:  fmt.Errorf("%w: %d bytes exceeds the %d byte limit", types.ErrFileTooLarge, size, d.maxBytes),
		}
	}
	return nil
}

// Decode checks and parses an uploaded file.
//
// PARAMETERS:
//   - name: The file name; its extension selects the parser.
//   - data: The complete file content.
//
// RETURNS:
//   - The decoded table.
//   - A *types.FileError or *types.DecodeError.
func (d *Decoder) Decode(name string, data []byte) (*types.Table, error) {
	if err := d.Check(name, int64(len(data))); err != nil {
		d.logger.Warn("file rejected", zap.String("file", name), zap.Error(err))
		return nil, err
	}

	var (
		table *types.Table
		err   error
	)
	if workbookExtensions[strings.ToLower(filepath.Ext(name))] {
		table, err = xlsxparser.Parse(name, data)
	} else {
		table, err = csvparser.Parse(name, data, csvparser.Options{Encoding: d.encoding})
	}
	if err != nil {
		d.logger.Warn("file could not be decoded", zap.String("file", name), zap.Error(err))
		return nil, err
	}

	if len(table.DuplicateHeaders) > 0 {
		d.logger.Warn("duplicate headers renamed",
			zap.String("file", name),
			zap.Strings("headers", table.DuplicateHeaders),
		)
	}

	d.logger.Info("file decoded",
		zap.String("file", name),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", len(table.Rows)),
	)

	return table, nil
}
