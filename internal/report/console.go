package report

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// Console prints phase outcomes as text.
type Console struct {
	w io.Writer

	// MaxIssues caps the number of problem rows listed. Zero lists all.
	MaxIssues int
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, MaxIssues: 50}
}

// ValidationCompleted prints the review summary and the problem rows.
func (c *Console) ValidationCompleted(summary stats.Summary, results []types.ValidationResult) error {
	fmt.Fprintln(c.w, "\n=== Validation Summary ===")
	fmt.Fprintf(c.w, "Rows:            %d\n", summary.Total)
	fmt.Fprintf(c.w, "Valid:           %d\n", summary.Valid)
	fmt.Fprintf(c.w, "Warnings:        %d\n", summary.Warnings)
	fmt.Fprintf(c.w, "Errors:          %d\n", summary.Errors)
	fmt.Fprintf(c.w, "Unique meters:   %d\n", summary.UniqueMeters)
	if summary.MinDate != "" {
		fmt.Fprintf(c.w, "Date span:       %s .. %s\n", summary.MinDate, summary.MaxDate)
	}

	listed := 0
	for _, r := range results {
		if r.Status() == types.StatusValid {
			continue
		}
		if c.MaxIssues > 0 && listed == c.MaxIssues {
			fmt.Fprintf(c.w, "  ... %d more\n", summary.Warnings+summary.Errors-listed)
			break
		}
		if listed == 0 {
			fmt.Fprintln(c.w, "\nRows needing attention:")
		}
		marker := "✗"
		if r.Status() == types.StatusWarning {
			marker = "!"
		}
		fmt.Fprintf(c.w, "  %s row %d: %s", marker, r.RowNumber, r.Reason())
		if r.MeterNumberRaw != "" {
			fmt.Fprintf(c.w, " (meter %s)", r.MeterNumberRaw)
		}
		fmt.Fprintln(c.w)
		listed++
	}

	if !summary.Importable() {
		fmt.Fprintln(c.w, "\nNo valid rows. Nothing can be imported.")
	}
	return nil
}

// ImportCompleted prints the import counts and a partial-failure notice.
func (c *Console) ImportCompleted(outcome types.ImportOutcome) error {
	fmt.Fprintln(c.w, "\n=== Import Complete ===")
	fmt.Fprintf(c.w, "Batch:           %s\n", outcome.BatchID)
	fmt.Fprintf(c.w, "Imported:        %d\n", outcome.SuccessCount)
	fmt.Fprintf(c.w, "Failed:          %d\n", outcome.FailureCount)
	if outcome.ConflictCount > 0 {
		fmt.Fprintf(c.w, "  of which %d already had a reading for that date (use --overwrite to replace)\n", outcome.ConflictCount)
	}
	if outcome.FailureCount > 0 {
		fmt.Fprintln(c.w, "\nSome readings could not be saved. Details are in the log.")
	}
	return nil
}
