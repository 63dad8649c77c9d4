package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

type readingKey struct {
	meterID string
	date    string
}

// Memory is an in-process MeterDirectory and ReadingStore.
type Memory struct {
	mu       sync.RWMutex
	meters   []types.Meter
	readings map[readingKey]types.Reading
}

// NewMemory creates a Memory store seeded with the given meters.
func NewMemory(meters ...types.Meter) *Memory {
	return &Memory{
		meters:   append([]types.Meter(nil), meters...),
		readings: make(map[readingKey]types.Reading),
	}
}

// Meters returns a copy of the directory.
func (m *Memory) Meters(ctx context.Context) ([]types.Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Meter(nil), m.meters...), nil
}

// DeleteBy removes the reading for the meter and date, if any.
func (m *Memory) DeleteBy(ctx context.Context, meterID, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := readingKey{meterID: meterID, date: date}
	if _, ok := m.readings[key]; !ok {
		return 0, nil
	}
	delete(m.readings, key)
	return 1, nil
}

// Insert stores the reading unless one already exists for its meter and date.
func (m *Memory) Insert(ctx context.Context, reading types.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := readingKey{meterID: reading.MeterID, date: reading.Date}
	if _, exists := m.readings[key]; exists {
		return fmt.Errorf("meter %s on %s: %w", reading.MeterID, reading.Date, types.ErrDuplicateReading)
	}
	m.readings[key] = reading
	return nil
}

// Readings returns all stored readings ordered by meter ID and date.
func (m *Memory) Readings() []types.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Reading, 0, len(m.readings))
	for _, r := range m.readings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeterID != out[j].MeterID {
			return out[i].MeterID < out[j].MeterID
		}
		return out[i].Date < out[j].Date
	})
	return out
}
