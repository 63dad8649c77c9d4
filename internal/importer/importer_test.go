package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/store"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

type fixedID string

func (f fixedID) NewID() string { return string(f) }

// flakyStore wraps a Memory store and fails the insert of selected meters.
type flakyStore struct {
	*store.Memory
	failInsert map[string]error
	failDelete map[string]error
	calls      []string
}

func (f *flakyStore) DeleteBy(ctx context.Context, meterID, date string) (int64, error) {
	f.calls = append(f.calls, "delete:"+meterID)
	if err := f.failDelete[meterID]; err != nil {
		return 0, err
	}
	return f.Memory.DeleteBy(ctx, meterID, date)
}

func (f *flakyStore) Insert(ctx context.Context, r types.Reading) error {
	f.calls = append(f.calls, "insert:"+r.MeterID)
	if err := f.failInsert[r.MeterID]; err != nil {
		return err
	}
	return f.Memory.Insert(ctx, r)
}

func validRows() []types.ValidationResult {
	return []types.ValidationResult{
		types.NewValidResult(2, "Z-1", "2024-01-15", 100.5, "m1"),
		types.NewValidResult(3, "Z-2", "2024-01-15", 200, "m2"),
		types.NewValidResult(4, "Z-3", "2024-01-15", 300, "m3"),
	}
}

func TestRun_AllValid(t *testing.T) {
	mem := store.NewMemory()
	exec := New(Dependency{Store: mem, IDs: fixedID("batch-1")})

	var progress []int
	outcome, err := exec.Run(context.Background(), Request{
		Results:    validRows(),
		User:       "alice",
		OnProgress: func(p int) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, types.ImportOutcome{BatchID: "batch-1", SuccessCount: 3}, outcome)
	assert.Equal(t, []int{33, 67, 100}, progress)

	readings := mem.Readings()
	require.Len(t, readings, 3)
	assert.Equal(t, "alice", readings[0].RecordedBy)
	assert.Equal(t, "batch-1", readings[0].BatchID)
	assert.Nil(t, readings[0].Note)
}

func TestRun_OnlyValidRowsAreImported(t *testing.T) {
	results := []types.ValidationResult{
		types.NewValidResult(2, "Z-1", "2024-01-15", 1, "m1"),
		types.NewErrorResult(3, "", types.IssueMissingMeterNumber, "2024-01-15", nil, ""),
		types.NewValidResult(4, "Z-2", "2024-01-15", 2, "m2"),
		types.NewWarningResult(5, "Z-9", "2024-01-15", 3),
	}
	summary := stats.Compute(results)
	assert.Equal(t, 2, summary.Valid)
	assert.Equal(t, 1, summary.Errors)

	fs := &flakyStore{Memory: store.NewMemory()}
	outcome, err := New(Dependency{Store: fs}).Run(context.Background(), Request{Results: results})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, []string{"insert:m1", "insert:m2"}, fs.calls)
	assert.NotEmpty(t, outcome.BatchID)
}

func TestRun_PartialFailureKeepsOtherRows(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fs := &flakyStore{
		Memory:     store.NewMemory(),
		failInsert: map[string]error{"m2": errors.New("connection reset")},
	}

	var progress []int
	outcome, err := New(Dependency{Store: fs, Logger: zap.New(core)}).Run(context.Background(), Request{
		Results:    validRows(),
		OnProgress: func(p int) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailureCount)
	assert.Equal(t, 0, outcome.ConflictCount)
	assert.Equal(t, []int{33, 67, 100}, progress)

	committed := fs.Readings()
	require.Len(t, committed, 2)
	assert.Equal(t, "m1", committed[0].MeterID)
	assert.Equal(t, "m3", committed[1].MeterID)

	failed := logs.FilterMessage("row import failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(3), failed[0].ContextMap()["row"])
}

func TestRun_OverwriteReplacesExistingReading(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Insert(ctx, types.Reading{MeterID: "m1", Date: "2024-01-15", Value: 1, BatchID: "old"}))

	fs := &flakyStore{Memory: mem}
	outcome, err := New(Dependency{Store: fs, IDs: fixedID("new")}).Run(ctx, Request{
		Results:   validRows()[:2],
		Overwrite: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, []string{"delete:m1", "insert:m1", "delete:m2", "insert:m2"}, fs.calls)

	readings := mem.Readings()
	require.Len(t, readings, 2)
	assert.Equal(t, 100.5, readings[0].Value)
	assert.Equal(t, "new", readings[0].BatchID)
}

func TestRun_ReimportWithOverwriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	exec := New(Dependency{Store: mem})

	_, err := exec.Run(ctx, Request{Results: validRows(), Overwrite: true})
	require.NoError(t, err)
	first := mem.Readings()

	outcome, err := exec.Run(ctx, Request{Results: validRows(), Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.SuccessCount)

	second := mem.Readings()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].MeterID, second[i].MeterID)
		assert.Equal(t, first[i].Date, second[i].Date)
		assert.Equal(t, first[i].Value, second[i].Value)
	}
}

func TestRun_ConflictWithoutOverwriteIsCounted(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Insert(ctx, types.Reading{MeterID: "m2", Date: "2024-01-15", Value: 9}))

	outcome, err := New(Dependency{Store: mem}).Run(ctx, Request{Results: validRows()})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailureCount)
	assert.Equal(t, 1, outcome.ConflictCount)
	assert.Len(t, mem.Readings(), 3)
}

func TestRun_FailedDeleteSkipsInsert(t *testing.T) {
	fs := &flakyStore{
		Memory:     store.NewMemory(),
		failDelete: map[string]error{"m1": errors.New("lock timeout")},
	}

	outcome, err := New(Dependency{Store: fs}).Run(context.Background(), Request{
		Results:   validRows()[:2],
		Overwrite: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailureCount)
	assert.Equal(t, []string{"delete:m1", "delete:m2", "insert:m2"}, fs.calls)
}

func TestRun_NotesAreAttached(t *testing.T) {
	table := &types.Table{Rows: []types.RawRow{
		{RowNumber: 2, Cells: map[string]string{"Notiz": "Keller"}},
		{RowNumber: 3, Cells: map[string]string{"Notiz": ""}},
	}}
	mem := store.NewMemory()

	_, err := New(Dependency{Store: mem}).Run(context.Background(), Request{
		Results: validRows()[:2],
		Notes:   NotesFromTable(table, "Notiz"),
	})
	require.NoError(t, err)

	readings := mem.Readings()
	require.NotNil(t, readings[0].Note)
	assert.Equal(t, "Keller", *readings[0].Note)
	assert.Nil(t, readings[1].Note)
}

func TestRun_NoValidRows(t *testing.T) {
	results := []types.ValidationResult{
		types.NewWarningResult(2, "Z-9", "2024-01-15", 1),
	}

	_, err := New(Dependency{Store: store.NewMemory()}).Run(context.Background(), Request{Results: results})
	assert.ErrorIs(t, err, types.ErrNoValidRows)
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := New(Dependency{Store: store.NewMemory()}).Run(ctx, Request{Results: validRows()})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.SuccessCount)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 67, Progress(2, 3))
	assert.Equal(t, 100, Progress(3, 3))
	assert.Equal(t, 50, Progress(1, 2))
	assert.Equal(t, 0, Progress(0, 0))

	last := 0
	for i := 1; i <= 7; i++ {
		p := Progress(i, 7)
		assert.GreaterOrEqual(t, p, last)
		last = p
	}
}
