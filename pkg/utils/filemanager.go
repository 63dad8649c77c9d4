// =============================================================================
// Meter Reading Import - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the import tool:
//   - Directory management for reports and archives
//   - Archival of imported source files
//   - Row issue log generation
//   - Import summary generation
//   - File naming utilities
//
// ARCHIVAL STRATEGY:
//   - Source files are copied (never moved) into the archive directory after
//     an import, prefixed with the batch ID so repeated uploads never clash
//   - Reports are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the import tool.
type FileManager struct {
	// OutputDir is the directory where reports are written.
	OutputDir string

	// ArchiveDir is the directory for archived source files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/<batch>_readings.csv
	UseTimestampSubdirs bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all configured directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveSourceFile copies an imported file into the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//   - batchID: The import batch, used as the file name prefix.
//
// RETURNS:
//   - The path to the archived copy.
//   - An error if archival fails.
func (fm *FileManager) ArchiveSourceFile(filePath, batchID string) (string, error) {
	if fm.ArchiveDir == "" {
		return "", fmt.Errorf("no archive directory configured")
	}

	archivePath := fm.getArchivePath(filePath, batchID)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath, batchID string) string {
	fileName := filepath.Base(filePath)
	if batchID != "" {
		fileName = batchID + "_" + fileName
	}

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateFileName generates a unique report file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {original}  - Source file name without extension
//               any key of params
//   - params: A map of placeholder values.
//   - ext: The extension to enforce, e.g. ".txt".
//
// EXAMPLE:
//   format: "issues_{original}_{timestamp}"
//   params: {"original": "readings"}
//   output: "issues_readings_20240115_143022.txt"
func GenerateFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// baseName returns the file name without directory and extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// =============================================================================
// ROW ISSUE LOG
// =============================================================================

// IssueLogEntry is one warning or error row of a validated file.
type IssueLogEntry struct {
	RowNumber   int
	Status      string
	Reason      string
	MeterNumber string
	Date        string
}

// WriteIssueLog writes the problem rows of a validated file to a log file.
//
// PARAMETERS:
//   - entries: The rows to write.
//   - sourceFile: The validated file, used for the log name and header.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the log file, or "" if there was nothing to write.
//   - An error if writing fails.
func WriteIssueLog(entries []IssueLogEntry, sourceFile, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logName := GenerateFileName("issues_{original}_{timestamp}", map[string]string{
		"original": baseName(sourceFile),
	}, ".txt")
	logPath := filepath.Join(outputDir, logName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create issue log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Meter Reading Import - Row Issues\n"+
		"Source:    %s\n"+
		"Generated: %s\n"+
		"Rows:      %d\n"+
		"================================================================================\n\n",
		sourceFile,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for _, entry := range entries {
		fmt.Fprintf(writer, "Row %d [%s] %s\n", entry.RowNumber, strings.ToUpper(entry.Status), entry.Reason)
		if entry.MeterNumber != "" {
			fmt.Fprintf(writer, "  Meter: %s\n", entry.MeterNumber)
		}
		if entry.Date != "" {
			fmt.Fprintf(writer, "  Date:  %s\n", entry.Date)
		}
	}

	writer.WriteString("\n================================================================================\n" +
		"End of Issue Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush issue log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// IMPORT SUMMARY
// =============================================================================

// ImportSummary contains summary information about one import run.
type ImportSummary struct {
	StartTime  time.Time
	EndTime    time.Time
	SourceFile string
	BatchID    string
	User       string
	Overwrite  bool

	TotalRows    int
	ValidRows    int
	WarningRows  int
	ErrorRows    int
	UniqueMeters int
	MinDate      string
	MaxDate      string

	Imported  int
	Failed    int
	Conflicts int
}

// WriteSummaryLog writes an import summary to a log file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ImportSummary, outputDir string) (string, error) {
	summaryName := GenerateFileName("import_summary_{original}_{timestamp}", map[string]string{
		"original": baseName(summary.SourceFile),
	}, ".txt")
	summaryPath := filepath.Join(outputDir, summaryName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	span := "-"
	if summary.MinDate != "" {
		span = summary.MinDate + " .. " + summary.MaxDate
	}

	fmt.Fprintf(writer, "Meter Reading Import - Import Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Source:         %s\n"+
		"  Batch:          %s\n"+
		"  User:           %s\n"+
		"  Overwrite:      %t\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Validation:\n"+
		"  Total Rows:     %d\n"+
		"  Valid:          %d\n"+
		"  Warnings:       %d\n"+
		"  Errors:         %d\n"+
		"  Unique Meters:  %d\n"+
		"  Date Span:      %s\n\n"+
		"Import:\n"+
		"  Imported:       %d\n"+
		"  Failed:         %d\n"+
		"  Conflicts:      %d\n\n",
		summary.SourceFile,
		summary.BatchID,
		summary.User,
		summary.Overwrite,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalRows,
		summary.ValidRows,
		summary.WarningRows,
		summary.ErrorRows,
		summary.UniqueMeters,
		span,
		summary.Imported,
		summary.Failed,
		summary.Conflicts)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
