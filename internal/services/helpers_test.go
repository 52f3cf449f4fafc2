package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/metrics"
	"github.com/soltixdb/depotcast/internal/storage"
)

// scenarioVolumes is an upward trending eight-day history starting 2024-03-01
var scenarioVolumes = []float64{100, 102, 101, 105, 107, 106, 110, 112}

var fixedNow = time.Date(2024, 3, 20, 2, 15, 0, 0, time.UTC)

type testEnv struct {
	warehouses *metadata.MemoryManager
	store      *storage.MemoryStore
	recorder   *metrics.Recorder
	metrics    *prometheus.Registry
	forecasts  *ForecastService
	shipments  *ShipmentService
	registry   *WarehouseService
}

func testForecastDefaults() config.ForecastConfig {
	return config.ForecastConfig{
		DefaultOrder:   2,
		DefaultQ:       1,
		DefaultHorizon: 3,
		MaxHorizon:     30,
	}
}

func newTestEnv(t *testing.T, opts ...ForecastOption) *testEnv {
	t.Helper()
	logger := logging.NewNop()
	warehouses := metadata.NewMemoryManager()
	store := storage.NewMemoryStore(time.UTC)
	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	opts = append([]ForecastOption{WithRecorder(recorder), WithClock(func() time.Time { return fixedNow })}, opts...)
	return &testEnv{
		warehouses: warehouses,
		store:      store,
		recorder:   recorder,
		metrics:    reg,
		forecasts:  NewForecastService(logger, warehouses, store, forecast.NewEngine(), testForecastDefaults(), opts...),
		shipments:  NewShipmentService(logger, warehouses, store, time.UTC, recorder),
		registry:   NewWarehouseService(logger, warehouses, store),
	}
}

// addWarehouse registers a warehouse and stores one volume per day from 2024-03-01
func (e *testEnv) addWarehouse(t *testing.T, id string, capacity float64, volumes ...float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.warehouses.CreateWarehouse(ctx, &metadata.Warehouse{ID: id, Name: id, Capacity: capacity, CreatedAt: fixedNow}))

	days := make([]storage.ShipmentDay, len(volumes))
	for i, v := range volumes {
		days[i] = storage.ShipmentDay{Date: time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC), Volume: v}
	}
	if len(days) > 0 {
		_, err := e.store.UpsertShipments(ctx, id, days)
		require.NoError(t, err)
	}
}

func csvOf(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func requireServiceError(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*ServiceError)
	require.True(t, ok, "expected *ServiceError, got %T: %v", err, err)
	require.Equal(t, code, svcErr.Code, svcErr.Message)
	return svcErr
}

func intPtr(v int) *int {
	return &v
}
