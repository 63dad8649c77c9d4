// =============================================================================
// Meter Reading Import - Persistence Collaborators
// =============================================================================
//
// The pipeline talks to persistence through two small interfaces:
//
//   MeterDirectory  read-only list of known meters, loaded once per validation
//   ReadingStore    per-row delete and insert used by the import executor
//
// IMPLEMENTATIONS:
//   - Memory         in-process store, used by tests and dry runs
//   - Postgres       pgxpool backed store for production use
//   - CachedDirectory Redis cache in front of any MeterDirectory
//
// CONFLICT POLICY:
//   A store holds at most one reading per (meter ID, date). Inserting a second
//   one fails with types.ErrDuplicateReading. Overwrite mode deletes the
//   existing reading first.
//
// =============================================================================

package store

import (
	"context"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// MeterDirectory lists the meters readings can be attached to.
type MeterDirectory interface {
	Meters(ctx context.Context) ([]types.Meter, error)
}

// ReadingStore persists readings.
type ReadingStore interface {
	// DeleteBy removes the reading for the meter and canonical date.
	// It returns the number of removed readings; zero is not an error.
	DeleteBy(ctx context.Context, meterID, date string) (int64, error)

	// Insert stores a new reading. It returns types.ErrDuplicateReading
	// (possibly wrapped) when a reading for the same meter and date exists.
	Insert(ctx context.Context, reading types.Reading) error
}
