// =============================================================================
// Meter Reading Import - Import Executor
// =============================================================================
//
// The executor commits the valid rows of a validated file, one row at a time.
//
// PER ROW (strictly sequential, never concurrent):
//   1. Overwrite mode: delete any existing reading for (meter, date).
//      No match is not an error. A failed delete fails the row and skips
//      its insert.
//   2. Insert the reading with the row's note and the current user.
//   3. Count a success or a failure. Failures are logged with the row
//      number and never abort the batch; committed rows are never rolled back.
//   4. Report progress as round(processed / total * 100).
//
// The run is detached from caller cancellation: once started, every row is
// processed.
//
// =============================================================================

package importer

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/store"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// NoteLookup returns the original note text of a row, if it has one.
type NoteLookup func(rowNumber int) (string, bool)

// IDGenerator creates batch identifiers.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

// Dependency holds the collaborators of an Executor.
type Dependency struct {
	Store  store.ReadingStore
	Logger *zap.Logger
	IDs    IDGenerator
}

// Executor commits validated rows.
type Executor struct {
	store  store.ReadingStore
	logger *zap.Logger
	ids    IDGenerator
}

// New creates an Executor. Logger and IDs are optional.
func New(dep Dependency) *Executor {
	logger := dep.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := dep.IDs
	if ids == nil {
		ids = uuidGenerator{}
	}
	return &Executor{store: dep.Store, logger: logger, ids: ids}
}

// Request describes one import run.
type Request struct {
	// Results is the full validated set; only valid rows are imported.
	Results []types.ValidationResult

	// Overwrite deletes an existing reading for the same meter and date
	// before inserting.
	Overwrite bool

	// User is recorded as the author of every inserted reading.
	User string

	// Notes resolves a row number to its note text. Nil means no notes.
	Notes NoteLookup

	// OnProgress receives the percentage after every row. Optional.
	OnProgress func(percent int)
}

// Run imports the valid rows of the request.
//
// RETURNS:
//   - The outcome with success, failure and conflict counts.
//   - types.ErrNoValidRows if the request has no valid row. Row level
//     persistence failures are counted, never returned.
func (e *Executor) Run(ctx context.Context, req Request) (types.ImportOutcome, error) {
	rows := types.FilterByStatus(req.Results, types.StatusValid)
	if len(rows) == 0 {
		return types.ImportOutcome{}, types.ErrNoValidRows
	}
	if e.store == nil {
		return types.ImportOutcome{}, errors.New("importer: no reading store configured")
	}

	ctx = context.WithoutCancel(ctx)
	outcome := types.ImportOutcome{BatchID: e.ids.NewID()}
	log := e.logger.With(zap.String("batch_id", outcome.BatchID))

	log.Info("import started",
		zap.Int("rows", len(rows)),
		zap.Bool("overwrite", req.Overwrite),
		zap.String("user", req.User),
	)

	total := len(rows)
	for i, row := range rows {
		if err := e.commit(ctx, row, req, outcome.BatchID); err != nil {
			outcome.FailureCount++
			if errors.Is(err, types.ErrDuplicateReading) {
				outcome.ConflictCount++
			}
			log.Warn("row import failed",
				zap.Int("row", row.RowNumber),
				zap.String("meter_id", row.ResolvedMeterID),
				zap.String("date", row.NormalizedDate),
				zap.Error(err),
			)
		} else {
			outcome.SuccessCount++
		}

		if req.OnProgress != nil {
			req.OnProgress(Progress(i+1, total))
		}
	}

	log.Info("import finished",
		zap.Int("success", outcome.SuccessCount),
		zap.Int("failed", outcome.FailureCount),
		zap.Int("conflicts", outcome.ConflictCount),
	)

	return outcome, nil
}

// commit runs the delete/insert sequence for one row.
func (e *Executor) commit(ctx context.Context, row types.ValidationResult, req Request, batchID string) error {
	if req.Overwrite {
		removed, err := e.store.DeleteBy(ctx, row.ResolvedMeterID, row.NormalizedDate)
		if err != nil {
			return &types.PersistenceError{RowNumber: row.RowNumber, Op: "delete", Err: err}
		}
		if removed > 0 {
			e.logger.Debug("existing reading replaced",
				zap.Int("row", row.RowNumber),
				zap.Int64("removed", removed),
			)
		}
	}

	reading := types.Reading{
		MeterID:    row.ResolvedMeterID,
		Value:      row.Value(),
		Date:       row.NormalizedDate,
		RecordedBy: req.User,
		BatchID:    batchID,
	}
	if req.Notes != nil {
		if note, ok := req.Notes(row.RowNumber); ok && note != "" {
			reading.Note = &note
		}
	}

	if err := e.store.Insert(ctx, reading); err != nil {
		return &types.PersistenceError{RowNumber: row.RowNumber, Op: "insert", Err: err}
	}
	return nil
}

// Progress returns round(processed / total * 100).
func Progress(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(processed) / float64(total) * 100))
}

// NotesFromTable builds a NoteLookup from the notes column of a table.
// An empty column yields a lookup that never finds a note.
func NotesFromTable(table *types.Table, column string) NoteLookup {
	notes := make(map[int]string)
	if table != nil && column != "" {
		for _, row := range table.Rows {
			if note := row.Cell(column); note != "" {
				notes[row.RowNumber] = note
			}
		}
	}
	return func(rowNumber int) (string, bool) {
		note, ok := notes[rowNumber]
		return note, ok
	}
}
