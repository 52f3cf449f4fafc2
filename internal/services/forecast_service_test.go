package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/queue"
)

const eventSubject = "depotcast.forecast.completed"

func newMemoryQueue(t *testing.T) queue.Queue {
	t.Helper()
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestForecastService_Execute(t *testing.T) {
	q := newMemoryQueue(t)
	codec := queue.NewEventCodec(true)

	var (
		mu     sync.Mutex
		events []models.ForecastEvent
	)
	received := make(chan struct{}, 1)
	require.NoError(t, q.Subscribe(eventSubject, func(data []byte) error {
		var ev models.ForecastEvent
		if err := codec.Decode(data, &ev); err != nil {
			return err
		}
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		received <- struct{}{}
		return nil
	}))

	env := newTestEnv(t, WithEventPublisher(q, codec, eventSubject))
	env.addWarehouse(t, "berlin-1", 0, scenarioVolumes...)

	resp, err := env.forecasts.Execute(context.Background(), &ForecastRequest{WarehouseID: "berlin-1", Days: intPtr(3), Order: intPtr(2)})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "berlin-1", resp.WarehouseID)
	assert.Equal(t, "2024-03-20T02:15:00Z", resp.GeneratedAt)
	assert.Equal(t, 3, resp.Horizon)
	assert.Equal(t, "ar", resp.Model.Method)
	assert.Equal(t, "AR(2) approximation", resp.Model.Label)
	assert.Equal(t, 8, resp.Model.DataPoints)

	require.Len(t, resp.Predictions, 3)
	spread := 1.96 * 4.274091382136927
	for i, p := range resp.Predictions {
		assert.Equal(t, time.Date(2024, 3, 9+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly), p.Date)
		assert.Greater(t, p.Value, 100.0)
		require.NotNil(t, p.LowerBound)
		require.NotNil(t, p.UpperBound)
		assert.InDelta(t, p.Value-spread, *p.LowerBound, 1e-5)
		assert.InDelta(t, p.Value+spread, *p.UpperBound, 1e-5)
	}

	latest, err := env.store.LatestForecastRun(context.Background(), "berlin-1")
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, latest.ID)
	assert.Equal(t, 2, latest.Order)
	assert.Equal(t, 3, latest.Horizon)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("forecast event was not published")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, resp.RunID, events[0].RunID)
	assert.Equal(t, "AR(2) approximation", events[0].Label)
	assert.Equal(t, resp.Predictions, events[0].Predictions)
}

func TestForecastService_Execute_UsesCapacity(t *testing.T) {
	env := newTestEnv(t)
	env.addWarehouse(t, "hamburg", 200, 50, 60, 70, 80)

	resp, err := env.forecasts.Execute(context.Background(), &ForecastRequest{WarehouseID: "hamburg", Days: intPtr(1)})
	require.NoError(t, err)

	// four points only support smoothing, which has no band
	assert.Equal(t, "exponential_smoothing", resp.Model.Method)
	require.Len(t, resp.Predictions, 1)
	assert.Nil(t, resp.Predictions[0].LowerBound)
	assert.Nil(t, resp.Predictions[0].UpperBound)
	assert.Greater(t, resp.Predictions[0].Value, 25.0)
	assert.Less(t, resp.Predictions[0].Value, 60.0, "occupancy is a percentage of capacity")
}

func TestForecastService_Execute_Defaults(t *testing.T) {
	env := newTestEnv(t)
	env.addWarehouse(t, "d1", 0, scenarioVolumes...)

	resp, err := env.forecasts.Execute(context.Background(), &ForecastRequest{WarehouseID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Horizon)
	assert.Len(t, resp.Predictions, 3)
	assert.Equal(t, "AR(2) approximation", resp.Model.Label)
}

func TestForecastService_Execute_HistoryWindow(t *testing.T) {
	env := newTestEnv(t)
	env.forecasts.defaults.HistoryDays = 5
	env.addWarehouse(t, "w", 0, scenarioVolumes...)

	// now is 2024-03-20, so a 5 day window ending today holds no history
	_, err := env.forecasts.Execute(context.Background(), &ForecastRequest{WarehouseID: "w"})
	requireServiceError(t, err, CodeInsufficientData)

	// anchored at the last stored day the window keeps 03-04..03-08
	resp, err := env.forecasts.Execute(context.Background(), &ForecastRequest{
		WarehouseID: "w",
		To:          time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Model.DataPoints)
}

func TestForecastService_Execute_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.addWarehouse(t, "short", 0, 10, 11)
	ctx := context.Background()

	t.Run("unknown warehouse", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "nope"})
		svcErr := requireServiceError(t, err, CodeWarehouseNotFound)
		assert.Equal(t, 404, svcErr.HTTPStatus())
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "short"})
		svcErr := requireServiceError(t, err, CodeInsufficientData)
		assert.Equal(t, "exponential_smoothing", svcErr.Details["method"])
		assert.Equal(t, 422, svcErr.HTTPStatus())
	})

	t.Run("negative days", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "short", Days: intPtr(-1)})
		requireServiceError(t, err, CodeInvalidParameter)
	})

	t.Run("zero days", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "short", Days: intPtr(0)})
		requireServiceError(t, err, CodeInvalidParameter)
	})

	t.Run("zero order", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "short", Order: intPtr(0)})
		requireServiceError(t, err, CodeInvalidParameter)
	})

	t.Run("days above maximum", func(t *testing.T) {
		_, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "short", Days: intPtr(31)})
		svcErr := requireServiceError(t, err, CodeInvalidParameter)
		assert.Equal(t, 30, svcErr.Details["max"])
	})

	runs, err := env.store.ListForecastRuns(ctx, "short", 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "failed forecasts are not stored")

	// only the insufficient data attempt reached the engine
	observed, err := testutil.GatherAndCount(env.metrics, "depotcast_forecasts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, observed)
}

func TestForecastService_ForecastSeries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	points := []models.SeriesPoint{
		{Date: "2024-01-01", Value: 10},
		{Date: "2024-01-02", Value: 12},
		{Date: "2024-01-03", Value: 11},
		{Date: "2024-01-04", Value: 13},
	}
	resp, err := env.forecasts.ForecastSeries(ctx, points, intPtr(2), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.RunID)
	assert.Equal(t, "Exponential Smoothing", resp.Model.Label)
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "2024-01-05", resp.Predictions[0].Date)
	assert.Equal(t, "2024-01-06", resp.Predictions[1].Date)

	_, err = env.forecasts.ForecastSeries(ctx, []models.SeriesPoint{{Date: "01/02/2024", Value: 1}}, intPtr(1), nil)
	svcErr := requireServiceError(t, err, CodeInvalidParameter)
	assert.Equal(t, 0, svcErr.Details["index"])

	_, err = env.forecasts.ForecastSeries(ctx, points[:2], intPtr(1), nil)
	requireServiceError(t, err, CodeInsufficientData)

	_, err = env.forecasts.ForecastSeries(ctx, points, intPtr(0), intPtr(0))
	requireServiceError(t, err, CodeInvalidParameter)

	// omitted parameters take the configured defaults
	resp, err = env.forecasts.ForecastSeries(ctx, points, nil, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Predictions, testForecastDefaults().DefaultHorizon)
}

func TestForecastService_Runs(t *testing.T) {
	env := newTestEnv(t)
	env.addWarehouse(t, "w", 0, scenarioVolumes...)
	env.addWarehouse(t, "empty", 0)
	ctx := context.Background()

	_, err := env.forecasts.LatestRun(ctx, "empty")
	requireServiceError(t, err, CodeNotFound)

	_, err = env.forecasts.LatestRun(ctx, "missing")
	requireServiceError(t, err, CodeWarehouseNotFound)

	first, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "w", Days: intPtr(2)})
	require.NoError(t, err)
	second, err := env.forecasts.Execute(ctx, &ForecastRequest{WarehouseID: "w", Days: intPtr(4)})
	require.NoError(t, err)

	latest, err := env.forecasts.LatestRun(ctx, "w")
	require.NoError(t, err)
	assert.Contains(t, []string{first.RunID, second.RunID}, latest.RunID)
	assert.Equal(t, 2, latest.Model.Parameters["p"])

	list, err := env.forecasts.ListRuns(ctx, "w", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Runs, 2)

	list, err = env.forecasts.ListRuns(ctx, "w", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	_, err = env.forecasts.ListRuns(ctx, "missing", 5)
	requireServiceError(t, err, CodeWarehouseNotFound)
}

func TestForecastService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	env.addWarehouse(t, "w", 0, scenarioVolumes...)

	require.NoError(t, env.forecasts.Refresh(context.Background(), "w"))
	run, err := env.store.LatestForecastRun(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, 3, run.Horizon)
}

func TestForecastService_HandleRequestMessage(t *testing.T) {
	codec := queue.NewEventCodec(true)
	env := newTestEnv(t, WithEventPublisher(nil, codec, ""))
	env.addWarehouse(t, "w", 0, scenarioVolumes...)
	env.addWarehouse(t, "short", 0, 1)

	payload, err := codec.Encode(models.ForecastRequestMessage{WarehouseID: "w", Days: intPtr(2), RequestID: "req-1"})
	require.NoError(t, err)
	require.NoError(t, env.forecasts.HandleRequestMessage(payload))

	run, err := env.store.LatestForecastRun(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Horizon)

	bare, err := json.Marshal(models.ForecastRequestMessage{WarehouseID: "w", Days: intPtr(5)})
	require.NoError(t, err)
	require.NoError(t, env.forecasts.HandleRequestMessage(bare))

	run, err = env.store.LatestForecastRun(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, 5, run.Horizon)

	// rejected requests are acknowledged rather than redelivered
	missing, _ := json.Marshal(models.ForecastRequestMessage{WarehouseID: "missing"})
	assert.NoError(t, env.forecasts.HandleRequestMessage(missing))
	short, _ := json.Marshal(models.ForecastRequestMessage{WarehouseID: "short"})
	assert.NoError(t, env.forecasts.HandleRequestMessage(short))
	assert.NoError(t, env.forecasts.HandleRequestMessage([]byte{0x07, 0x01}))
}
