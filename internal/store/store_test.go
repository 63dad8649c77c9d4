package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

func TestMemory_InsertRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Insert(ctx, types.Reading{MeterID: "m1", Date: "2024-01-15", Value: 1}))
	err := m.Insert(ctx, types.Reading{MeterID: "m1", Date: "2024-01-15", Value: 2})
	assert.True(t, errors.Is(err, types.ErrDuplicateReading))

	require.NoError(t, m.Insert(ctx, types.Reading{MeterID: "m1", Date: "2024-01-16", Value: 2}))
	assert.Len(t, m.Readings(), 2)
}

func TestMemory_DeleteBy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Insert(ctx, types.Reading{MeterID: "m1", Date: "2024-01-15"}))

	n, err := m.DeleteBy(ctx, "m1", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.DeleteBy(ctx, "m1", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Empty(t, m.Readings())
}

func TestMemory_MetersIsACopy(t *testing.T) {
	m := NewMemory(types.Meter{ID: "m1", MeterNumber: "Z-1"})

	meters, err := m.Meters(context.Background())
	require.NoError(t, err)
	meters[0].ID = "changed"

	again, _ := m.Meters(context.Background())
	assert.Equal(t, "m1", again[0].ID)
}

// fakeCache records Redis calls without a server.
type fakeCache struct {
	values  map[string]string
	getErr  error
	setErr  error
	sets    int
	lastTTL time.Duration
}

func (f *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.sets++
	f.lastTTL = expiration
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// countingDirectory counts how often the backing directory is hit.
type countingDirectory struct {
	meters []types.Meter
	calls  int
	err    error
}

func (d *countingDirectory) Meters(ctx context.Context) ([]types.Meter, error) {
	d.calls++
	return d.meters, d.err
}

func TestCachedDirectory_MissThenHit(t *testing.T) {
	ctx := context.Background()
	backing := &countingDirectory{meters: []types.Meter{{ID: "m1", MeterNumber: "Z-1"}}}
	cache := &fakeCache{values: map[string]string{}}
	dir := NewCachedDirectory(backing, cache, "tenant-a", time.Minute, nil)

	first, err := dir.Meters(ctx)
	require.NoError(t, err)
	second, err := dir.Meters(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.calls)
	assert.Equal(t, time.Minute, cache.lastTTL)
	assert.Contains(t, cache.values, "meterimport:tenant-a:meters")

	require.NoError(t, dir.Invalidate(ctx))
	_, err = dir.Meters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)
}

func TestCachedDirectory_RedisDownFallsThrough(t *testing.T) {
	backing := &countingDirectory{meters: []types.Meter{{ID: "m1", MeterNumber: "Z-1"}}}
	cache := &fakeCache{
		values: map[string]string{},
		getErr: errors.New("connection refused"),
		setErr: errors.New("connection refused"),
	}
	dir := NewCachedDirectory(backing, cache, "t", 0, nil)

	meters, err := dir.Meters(context.Background())
	require.NoError(t, err)
	assert.Len(t, meters, 1)
	assert.Equal(t, DefaultDirectoryTTL, cache.lastTTL)
}

func TestCachedDirectory_BackingErrorIsReturned(t *testing.T) {
	backing := &countingDirectory{err: errors.New("db down")}
	dir := NewCachedDirectory(backing, &fakeCache{values: map[string]string{}}, "t", 0, nil)

	_, err := dir.Meters(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestCachedDirectory_CorruptEntryIsReloaded(t *testing.T) {
	backing := &countingDirectory{meters: []types.Meter{{ID: "m1", MeterNumber: "Z-1"}}}
	cache := &fakeCache{values: map[string]string{"meterimport:t:meters": "{not json"}}
	dir := NewCachedDirectory(backing, cache, "t", 0, nil)

	meters, err := dir.Meters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backing.meters, meters)
	assert.Equal(t, 1, cache.sets)
}

// TestPostgres_RoundTrip runs against a real database when
// METERIMPORT_TEST_DSN is set.
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("METERIMPORT_TEST_DSN")
	if dsn == "" {
		t.Skip("METERIMPORT_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	pg := NewPostgres(pool, "test-tenant")
	require.NoError(t, pg.Migrate(ctx))

	_, err = pool.Exec(ctx, `INSERT INTO meters (id, tenant_id, meter_number) VALUES ('pg-m1', 'test-tenant', 'PG-1') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM meter_readings WHERE meter_id = 'pg-m1'`)
	require.NoError(t, err)

	meters, err := pg.Meters(ctx)
	require.NoError(t, err)
	assert.Contains(t, meters, types.Meter{ID: "pg-m1", MeterNumber: "PG-1"})

	reading := types.Reading{MeterID: "pg-m1", Date: "2024-01-15", Value: 1.5, RecordedBy: "tester", BatchID: "b1"}
	require.NoError(t, pg.Insert(ctx, reading))
	assert.True(t, errors.Is(pg.Insert(ctx, reading), types.ErrDuplicateReading))

	n, err := pg.DeleteBy(ctx, "pg-m1", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewPool_EmptyDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "  ")
	assert.EqualError(t, err, "store: empty DSN")
}
