package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/analytics/forecast"
)

// MemoryStore implements Repository in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu        sync.RWMutex
	loc       *time.Location
	shipments map[string]map[string]float64 // warehouse -> day -> volume
	runs      map[string][]Run              // warehouse -> runs, oldest first
}

// NewMemoryStore creates an empty store reporting days in loc (UTC when nil)
func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryStore{
		loc:       loc,
		shipments: make(map[string]map[string]float64),
		runs:      make(map[string][]Run),
	}
}

func (m *MemoryStore) UpsertShipments(_ context.Context, warehouseID string, days []ShipmentDay) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDay, ok := m.shipments[warehouseID]
	if !ok {
		byDay = make(map[string]float64)
		m.shipments[warehouseID] = byDay
	}
	for _, d := range days {
		byDay[formatDay(d.Date)] = d.Volume
	}
	return len(days), nil
}

func (m *MemoryStore) DailySeries(_ context.Context, warehouseID string, from, to time.Time) (analytics.TimeSeriesData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := "", "9999-12-31"
	if !from.IsZero() {
		lo = formatDay(from)
	}
	if !to.IsZero() {
		hi = formatDay(to)
	}

	keys := make([]string, 0, len(m.shipments[warehouseID]))
	for day := range m.shipments[warehouseID] {
		if day >= lo && day <= hi {
			keys = append(keys, day)
		}
	}
	sort.Strings(keys)

	series := make(analytics.TimeSeriesData, 0, len(keys))
	for _, day := range keys {
		t, err := time.ParseInLocation(dayLayout, day, m.loc)
		if err != nil {
			return nil, err
		}
		series = append(series, analytics.TimeSeriesPoint{Time: t, Value: m.shipments[warehouseID][day]})
	}
	return series, nil
}

func (m *MemoryStore) SaveForecastRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.Predictions = append([]forecast.ForecastPoint(nil), run.Predictions...)
	m.runs[run.WarehouseID] = append(m.runs[run.WarehouseID], run)
	return nil
}

func (m *MemoryStore) LatestForecastRun(ctx context.Context, warehouseID string) (*Run, error) {
	runs, _ := m.ListForecastRuns(ctx, warehouseID, 1)
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

func (m *MemoryStore) ListForecastRuns(_ context.Context, warehouseID string, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		return []Run{}, nil
	}

	stored := m.runs[warehouseID]
	out := make([]Run, 0, min(limit, len(stored)))
	// ties on CreatedAt resolve to the most recently saved run
	ordered := make([]Run, len(stored))
	copy(ordered, stored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for i := len(ordered) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, ordered[i])
	}
	return out, nil
}

func (m *MemoryStore) DeleteWarehouse(_ context.Context, warehouseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.shipments, warehouseID)
	delete(m.runs, warehouseID)
	return nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
