package report

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
	"github.com/ginjaninja78/meter-reading-import/pkg/utils"
)

// Files writes an issue log after validation and a summary file after import.
type Files struct {
	OutputDir  string
	SourceFile string
	User       string
	Overwrite  bool

	logger  *zap.Logger
	now     func() time.Time
	started time.Time
	summary stats.Summary

	// Paths of the files written so far, for display by the caller.
	IssueLogPath   string
	SummaryLogPath string
}

// NewFiles returns a Files reporter writing into outputDir.
func NewFiles(outputDir, sourceFile, user string, overwrite bool, logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{
		OutputDir:  outputDir,
		SourceFile: sourceFile,
		User:       user,
		Overwrite:  overwrite,
		logger:     logger,
		now:        time.Now,
	}
}

// ValidationCompleted writes the warning and error rows to an issue log.
func (f *Files) ValidationCompleted(summary stats.Summary, results []types.ValidationResult) error {
	f.started = f.now()
	f.summary = summary

	entries := make([]utils.IssueLogEntry, 0, summary.Warnings+summary.Errors)
	for _, r := range results {
		if r.Status() == types.StatusValid {
			continue
		}
		entries = append(entries, utils.IssueLogEntry{
			RowNumber:   r.RowNumber,
			Status:      string(r.Status()),
			Reason:      r.Reason(),
			MeterNumber: r.MeterNumberRaw,
			Date:        r.NormalizedDate,
		})
	}

	path, err := utils.WriteIssueLog(entries, f.SourceFile, f.OutputDir)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if path != "" {
		f.IssueLogPath = path
		f.logger.Info("issue log written", zap.String("path", path), zap.Int("rows", len(entries)))
	}
	return nil
}

// ImportCompleted writes the import summary file.
func (f *Files) ImportCompleted(outcome types.ImportOutcome) error {
	end := f.now()
	start := f.started
	if start.IsZero() {
		start = end
	}

	path, err := utils.WriteSummaryLog(utils.ImportSummary{
		StartTime:    start,
		EndTime:      end,
		SourceFile:   f.SourceFile,
		BatchID:      outcome.BatchID,
		User:         f.User,
		Overwrite:    f.Overwrite,
		TotalRows:    f.summary.Total,
		ValidRows:    f.summary.Valid,
		WarningRows:  f.summary.Warnings,
		ErrorRows:    f.summary.Errors,
		UniqueMeters: f.summary.UniqueMeters,
		MinDate:      f.summary.MinDate,
		MaxDate:      f.summary.MaxDate,
		Imported:     outcome.SuccessCount,
		Failed:       outcome.FailureCount,
		Conflicts:    outcome.ConflictCount,
	}, f.OutputDir)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	f.SummaryLogPath = path
	f.logger.Info("import summary written", zap.String("path", path))
	return nil
}
