// =============================================================================
// Meter Reading Import - Outcome Reporters
// =============================================================================
//
// The pipeline notifies a Reporter once per logical phase and has no other
// knowledge of presentation:
//
//   ValidationCompleted  after every validation pass (summary + all results)
//   ImportCompleted      after an import run finished
//
// IMPLEMENTATIONS:
//   - Console  human-readable text on an io.Writer (the CLI's stdout)
//   - Files    issue log and import summary files (pkg/utils)
//   - Metrics  Prometheus textfile for the node exporter textfile collector
//   - Multi    fan-out to several reporters
//
// =============================================================================

package report

import (
	"errors"

	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// Reporter receives the outcome of each pipeline phase.
type Reporter interface {
	ValidationCompleted(summary stats.Summary, results []types.ValidationResult) error
	ImportCompleted(outcome types.ImportOutcome) error
}

// Multi forwards every notification to all reporters. Every reporter is
// called even if an earlier one fails; the errors are joined.
type Multi []Reporter

// ValidationCompleted forwards to all reporters.
func (m Multi) ValidationCompleted(summary stats.Summary, results []types.ValidationResult) error {
	var errs []error
	for _, r := range m {
		if err := r.ValidationCompleted(summary, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ImportCompleted forwards to all reporters.
func (m Multi) ImportCompleted(outcome types.ImportOutcome) error {
	var errs []error
	for _, r := range m {
		if err := r.ImportCompleted(outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop ignores all notifications.
type Nop struct{}

func (Nop) ValidationCompleted(stats.Summary, []types.ValidationResult) error { return nil }
func (Nop) ImportCompleted(types.ImportOutcome) error                     { return nil }
