// =============================================================================
// Meter Reading Import - Import Wizard
// =============================================================================
//
// A Session walks one file through the import steps:
//
//   Upload → Mapping → Validation → Confirm → Importing → Result
//
// GUARDS:
//   - Upload → Mapping:      the file decoded successfully
//   - Mapping → Validation:  meter number, date and value are mapped
//   - Validation → Confirm:  at least one row is valid
//   - Confirm → Importing:   runs the import executor
//
// Back() steps from Mapping, Validation or Confirm to the previous step.
// Reset() clears the session from any state.
//
// A Session is not safe for concurrent use.
//
// =============================================================================

package wizard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/auth"
	"github.com/ginjaninja78/meter-reading-import/internal/decoder"
	"github.com/ginjaninja78/meter-reading-import/internal/importer"
	"github.com/ginjaninja78/meter-reading-import/internal/mapping"
	"github.com/ginjaninja78/meter-reading-import/internal/report"
	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/store"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
	"github.com/ginjaninja78/meter-reading-import/internal/validation"
)

// State is a wizard step.
type State int

const (
	StateUpload State = iota
	StateMapping
	StateValidation
	StateConfirm
	StateImporting
	StateResult
)

func (s State) String() string {
	switch s {
	case StateUpload:
		return "upload"
	case StateMapping:
		return "mapping"
	case StateValidation:
		return "validation"
	case StateConfirm:
		return "confirm"
	case StateImporting:
		return "importing"
	case StateResult:
		return "result"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TransitionError is returned when an operation is not allowed in the
// current state or its guard fails.
type TransitionError struct {
	Op    string
	State State
	Err   error
}

func (e *TransitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wizard: cannot %s in %s step: %v", e.Op, e.State, e.Err)
	}
	return fmt.Sprintf("wizard: cannot %s in %s step", e.Op, e.State)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Dependency holds the collaborators of a Session. Only Directory, Executor
// and User are needed for a full import; the rest have defaults.
type Dependency struct {
	Decoder   *decoder.Decoder
	Mapper    *mapping.Mapper
	Directory store.MeterDirectory
	Executor  *importer.Executor
	Reporter  report.Reporter
	User      auth.CurrentUser
	Logger    *zap.Logger

	// OverwriteDefault is the overwrite option after creation and Reset.
	OverwriteDefault bool

	// OnProgress receives import progress percentages. Optional.
	OnProgress func(percent int)
}

// Session holds the state of one import.
type Session struct {
	dep    Dependency
	logger *zap.Logger

	state     State
	fileName  string
	table     *types.Table
	mapping   types.ColumnMapping
	results   []types.ValidationResult
	summary   stats.Summary
	overwrite bool
	progress  int
	outcome   *types.ImportOutcome
}

// New creates a Session in the upload step.
func New(dep Dependency) *Session {
	if dep.Decoder == nil {
		dep.Decoder = decoder.New(decoder.Options{Logger: dep.Logger})
	}
	if dep.Mapper == nil {
		dep.Mapper = mapping.New(nil)
	}
	if dep.Reporter == nil {
		dep.Reporter = report.Nop{}
	}
	logger := dep.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		dep:       dep,
		logger:    logger,
		overwrite: dep.OverwriteDefault,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (s *Session) State() State { return s.state }
func (s *Session) FileName() string { return s.fileName }
func (s *Session) Table() *types.Table { return s.table }
func (s *Session) Mapping() types.ColumnMapping { return s.mapping }
func (s *Session) Results() []types.ValidationResult { return s.results }
func (s *Session) Summary() stats.Summary { return s.summary }
func (s *Session) Overwrite() bool { return s.overwrite }
func (s *Session) Progress() int { return s.progress }

// Outcome returns the import outcome once the session reached the result step.
func (s *Session) Outcome() (types.ImportOutcome, bool) {
	if s.outcome == nil {
		return types.ImportOutcome{}, false
	}
	return *s.outcome, true
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Upload decodes a file and proposes a column mapping.
//
// PARAMETERS:
//   - name: The file name; its extension selects the parser.
//   - data: The file content.
//
// RETURNS:
//   - A *types.FileError or *types.DecodeError if the file is rejected; the
//     session stays in the upload step.
func (s *Session) Upload(name string, data []byte) error {
	if s.state != StateUpload {
		return &TransitionError{Op: "upload", State: s.state}
	}

	table, err := s.dep.Decoder.Decode(name, data)
	if err != nil {
		return err
	}

	s.fileName = name
	s.table = table
	s.mapping = s.dep.Mapper.Guess(table.Headers)
	s.state = StateMapping

	s.logger.Debug("mapping proposed",
		zap.String("file", name),
		zap.String("meter_number", s.mapping.MeterNumber),
		zap.String("date", s.mapping.Date),
		zap.String("value", s.mapping.Value),
		zap.String("notes", s.mapping.Notes),
	)
	return nil
}

// SetMapping assigns a column to a field. An empty header clears the field.
func (s *Session) SetMapping(field types.Field, header string) error {
	if s.state != StateMapping {
		return &TransitionError{Op: "change the mapping", State: s.state}
	}
	m, err := mapping.Override(s.table, s.mapping, field, header)
	if err != nil {
		return err
	}
	s.mapping = m
	return nil
}

// Validate checks every row against the current mapping and the meter
// directory, then notifies the reporter.
//
// RETURNS:
//   - A *types.MappingError if a required field is unmapped.
//   - An error if the meter directory cannot be loaded.
//
// In both cases the session stays in the mapping step.
func (s *Session) Validate(ctx context.Context) error {
	if s.state != StateMapping {
		return &TransitionError{Op: "validate", State: s.state}
	}
	if err := mapping.Check(s.mapping); err != nil {
		return err
	}

	var meters []types.Meter
	if s.dep.Directory != nil {
		var err error
		meters, err = s.dep.Directory.Meters(ctx)
		if err != nil {
			return fmt.Errorf("failed to load meter directory: %w", err)
		}
	}

	results, err := validation.New(meters, s.logger).Validate(s.table, s.mapping)
	if err != nil {
		return err
	}

	s.results = results
	s.summary = stats.Compute(results)
	s.state = StateValidation

	if err := s.dep.Reporter.ValidationCompleted(s.summary, s.results); err != nil {
		s.logger.Warn("validation report failed", zap.Error(err))
	}
	return nil
}

// Confirm accepts the validation result. It fails with types.ErrNoValidRows
// when no row can be imported.
func (s *Session) Confirm() error {
	if s.state != StateValidation {
		return &TransitionError{Op: "confirm", State: s.state}
	}
	if !s.summary.Importable() {
		return &TransitionError{Op: "confirm", State: s.state, Err: types.ErrNoValidRows}
	}
	s.state = StateConfirm
	return nil
}

// SetOverwrite sets whether existing readings for the same meter and date
// are replaced. It can be changed until the import starts.
func (s *Session) SetOverwrite(overwrite bool) error {
	if s.state == StateImporting || s.state == StateResult {
		return &TransitionError{Op: "change the overwrite option", State: s.state}
	}
	s.overwrite = overwrite
	return nil
}

// Import runs the executor over the valid rows and moves to the result step.
//
// RETURNS:
//   - The outcome. Row level persistence failures are part of the outcome,
//     not errors.
//   - An error if the current user cannot be resolved or the executor
//     cannot start; the session stays in the confirm step.
func (s *Session) Import(ctx context.Context) (types.ImportOutcome, error) {
	if s.state != StateConfirm {
		return types.ImportOutcome{}, &TransitionError{Op: "import", State: s.state}
	}
	if s.dep.Executor == nil {
		return types.ImportOutcome{}, errors.New("wizard: no import executor configured")
	}
	if s.dep.User == nil {
		return types.ImportOutcome{}, auth.ErrNoUser
	}

	user, err := s.dep.User.CurrentUser(ctx)
	if err != nil {
		return types.ImportOutcome{}, fmt.Errorf("failed to resolve current user: %w", err)
	}

	s.state = StateImporting
	s.progress = 0

	outcome, err := s.dep.Executor.Run(ctx, importer.Request{
		Results:    s.results,
		Overwrite:  s.overwrite,
		User:       user,
		Notes:      importer.NotesFromTable(s.table, s.mapping.Notes),
		OnProgress: s.reportProgress,
	})
	if err != nil {
		s.state = StateConfirm
		return types.ImportOutcome{}, err
	}

	s.outcome = &outcome
	s.state = StateResult

	if err := s.dep.Reporter.ImportCompleted(outcome); err != nil {
		s.logger.Warn("import report failed", zap.String("batch_id", outcome.BatchID), zap.Error(err))
	}
	return outcome, nil
}

func (s *Session) reportProgress(percent int) {
	s.progress = percent
	if s.dep.OnProgress != nil {
		s.dep.OnProgress(percent)
	}
}

// Back returns to the previous step. Going back to mapping discards the
// validation results; going back to upload discards the file.
func (s *Session) Back() error {
	switch s.state {
	case StateMapping:
		s.fileName = ""
		s.table = nil
		s.mapping = types.ColumnMapping{}
		s.state = StateUpload
	case StateValidation:
		s.results = nil
		s.summary = stats.Summary{}
		s.state = StateMapping
	case StateConfirm:
		s.state = StateValidation
	default:
		return &TransitionError{Op: "go back", State: s.state}
	}
	return nil
}

// Reset clears the session and returns it to the upload step.
func (s *Session) Reset() {
	*s = Session{
		dep:       s.dep,
		logger:    s.logger,
		overwrite: s.dep.OverwriteDefault,
	}
}
