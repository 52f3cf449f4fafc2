package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/ingest"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/metrics"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/queue"
	"github.com/soltixdb/depotcast/internal/storage"
	"github.com/soltixdb/depotcast/internal/utils"
)

// ForecastService runs warehouse forecasts and keeps their history
type ForecastService struct {
	logger     *logging.Logger
	warehouses metadata.Manager
	store      storage.Repository
	engine     *forecast.Engine
	defaults   config.ForecastConfig
	loc        *time.Location

	publisher    queue.Publisher
	codec        queue.EventCodec
	eventSubject string
	recorder     *metrics.Recorder
	now          func() time.Time
}

// ForecastOption configures optional ForecastService collaborators
type ForecastOption func(*ForecastService)

// WithEventPublisher publishes a ForecastEvent to subject after every stored run
func WithEventPublisher(p queue.Publisher, codec queue.EventCodec, subject string) ForecastOption {
	return func(s *ForecastService) {
		s.publisher = p
		s.codec = codec
		s.eventSubject = subject
	}
}

// WithRecorder records engine outcomes
func WithRecorder(r *metrics.Recorder) ForecastOption {
	return func(s *ForecastService) {
		s.recorder = r
	}
}

// WithLocation sets the time zone that calendar days are evaluated in
func WithLocation(loc *time.Location) ForecastOption {
	return func(s *ForecastService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ForecastOption {
	return func(s *ForecastService) {
		s.now = now
	}
}

// NewForecastService creates a new ForecastService
func NewForecastService(
	logger *logging.Logger,
	warehouses metadata.Manager,
	store storage.Repository,
	engine *forecast.Engine,
	defaults config.ForecastConfig,
	opts ...ForecastOption,
) *ForecastService {
	s := &ForecastService{
		logger:     logger,
		warehouses: warehouses,
		store:      store,
		engine:     engine,
		defaults:   defaults,
		loc:        time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForecastRequest represents a warehouse forecast request. Nil Days and
// Order take the configured defaults; zero From/To leave the history open.
type ForecastRequest struct {
	WarehouseID string
	Days        *int
	Order       *int
	From        time.Time
	To          time.Time
}

// params resolves request overrides against the configured defaults
func (s *ForecastService) params(days, order *int) (forecast.ForecastConfig, error) {
	cfg := forecast.DefaultForecastConfig()
	cfg.Order = s.defaults.DefaultOrder
	cfg.MAOrder = s.defaults.DefaultQ
	cfg.Horizon = s.defaults.DefaultHorizon

	if days != nil {
		cfg.Horizon = *days
	}
	if order != nil {
		cfg.Order = *order
	}
	if s.defaults.MaxHorizon > 0 && cfg.Horizon > s.defaults.MaxHorizon {
		return cfg, NewServiceErrorWithDetails(CodeInvalidParameter, "days exceeds the maximum horizon",
			map[string]interface{}{"days": cfg.Horizon, "max": s.defaults.MaxHorizon})
	}
	if err := cfg.Validate(); err != nil {
		return cfg, NewServiceError(CodeInvalidParameter, err.Error())
	}
	return cfg, nil
}

// run calls the engine and records the outcome
func (s *ForecastService) run(series analytics.TimeSeriesData, cfg forecast.ForecastConfig) (*forecast.ForecastResult, error) {
	start := time.Now()
	result, err := s.engine.Forecast(series, cfg)
	elapsed := time.Since(start)

	if err != nil {
		var fe *forecast.Error
		method := ""
		if errors.As(err, &fe) {
			method = string(fe.Method)
		}
		s.recorder.ObserveForecast(method, outcomeStatus(err), series.Len(), elapsed)
		return nil, forecastError(err)
	}

	s.recorder.ObserveForecast(string(result.ModelInfo.Method), metrics.StatusSuccess, series.Len(), elapsed)
	return result, nil
}

func outcomeStatus(err error) string {
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		return metrics.StatusInsufficientData
	case errors.Is(err, forecast.ErrFitFailed):
		return metrics.StatusFitFailed
	case errors.Is(err, forecast.ErrInvalidParameter):
		return metrics.StatusInvalidParameter
	default:
		return metrics.StatusError
	}
}

// Execute forecasts a registered warehouse from its stored shipment history,
// stores the run and publishes a ForecastEvent.
func (s *ForecastService) Execute(ctx context.Context, req *ForecastRequest) (*models.ForecastResponse, error) {
	startExec := time.Now()

	cfg, err := s.params(req.Days, req.Order)
	if err != nil {
		return nil, err
	}

	w, err := s.warehouses.GetWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, registryError(err, req.WarehouseID)
	}

	from := req.From
	if from.IsZero() && s.defaults.HistoryDays > 0 {
		end := req.To
		if end.IsZero() {
			end = s.now().In(s.loc)
		}
		from = analytics.DateOf(end).AddDate(0, 0, -s.defaults.HistoryDays+1)
	}

	volumes, err := s.store.DailySeries(ctx, w.ID, from, req.To)
	if err != nil {
		return nil, storageError(err, "failed to load shipment history")
	}
	series := ingest.OccupancySeries(volumes, w)

	result, err := s.run(series, cfg)
	if err != nil {
		return nil, err
	}

	run := storage.Run{
		ID:          uuid.NewString(),
		WarehouseID: w.ID,
		Method:      result.ModelInfo.Method,
		Label:       result.ModelInfo.Algorithm,
		Order:       resolvedOrder(result.ModelInfo),
		Horizon:     cfg.Horizon,
		DataPoints:  result.ModelInfo.DataPoints,
		Predictions: result.Predictions,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.SaveForecastRun(ctx, run); err != nil {
		return nil, storageError(err, "failed to store forecast run")
	}

	resp := forecastResponse(result, cfg.Horizon, run.CreatedAt)
	resp.RunID = run.ID
	resp.WarehouseID = w.ID

	s.publish(ctx, resp)

	logging.FromContext(ctx).Info("Forecast completed",
		"warehouse_id", w.ID,
		"run_id", run.ID,
		"method", run.Label,
		"data_points", run.DataPoints,
		"horizon", cfg.Horizon,
		"latency_ms", time.Since(startExec).Milliseconds())

	return resp, nil
}

// Refresh forecasts a warehouse with the default parameters
func (s *ForecastService) Refresh(ctx context.Context, warehouseID string) error {
	_, err := s.Execute(ctx, &ForecastRequest{WarehouseID: warehouseID})
	return err
}

// ForecastSeries forecasts an inline series. Nothing is stored or published.
func (s *ForecastService) ForecastSeries(ctx context.Context, points []models.SeriesPoint, days, order *int) (*models.ForecastResponse, error) {
	cfg, err := s.params(days, order)
	if err != nil {
		return nil, err
	}
	series, err := seriesFromPoints(points, s.loc)
	if err != nil {
		return nil, err
	}

	result, err := s.run(series, cfg)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("Inline forecast completed",
		"method", result.ModelInfo.Algorithm, "data_points", result.ModelInfo.DataPoints)
	return forecastResponse(result, cfg.Horizon, s.now()), nil
}

// LatestRun returns the most recent stored forecast of a warehouse
func (s *ForecastService) LatestRun(ctx context.Context, warehouseID string) (*models.ForecastResponse, error) {
	if err := s.warehouses.ValidateWarehouse(ctx, warehouseID); err != nil {
		return nil, registryError(err, warehouseID)
	}
	run, err := s.store.LatestForecastRun(ctx, warehouseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewServiceErrorWithDetails(CodeNotFound, "no forecast stored for warehouse",
			map[string]interface{}{"warehouse_id": warehouseID})
	}
	if err != nil {
		return nil, storageError(err, "failed to load forecast run")
	}
	resp := runResponse(run)
	return &resp, nil
}

// ListRuns returns up to limit stored forecasts, newest first
func (s *ForecastService) ListRuns(ctx context.Context, warehouseID string, limit int) (*models.ForecastRunListResponse, error) {
	if limit <= 0 {
		limit = utils.DefaultRunListLimit
	}
	if limit > utils.MaxRunListLimit {
		limit = utils.MaxRunListLimit
	}
	if err := s.warehouses.ValidateWarehouse(ctx, warehouseID); err != nil {
		return nil, registryError(err, warehouseID)
	}

	runs, err := s.store.ListForecastRuns(ctx, warehouseID, limit)
	if err != nil {
		return nil, storageError(err, "failed to list forecast runs")
	}

	out := &models.ForecastRunListResponse{
		WarehouseID: warehouseID,
		Runs:        make([]models.ForecastResponse, len(runs)),
		Count:       len(runs),
	}
	for i := range runs {
		out.Runs[i] = runResponse(&runs[i])
	}
	return out, nil
}

// HandleRequestMessage is the queue consumer for ForecastRequestMessage.
// Only retryable failures are returned, so that the broker redelivers them;
// anything else is logged and acknowledged.
func (s *ForecastService) HandleRequestMessage(data []byte) error {
	var msg models.ForecastRequestMessage
	if err := s.codec.Decode(data, &msg); err != nil {
		s.logger.Warn("Dropping undecodable forecast request", "error", err, "size", len(data))
		return nil
	}
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.MessageTimeout)
	defer cancel()
	ctx = logging.WithRequestID(ctx, msg.RequestID)
	ctx = logging.WithWarehouseID(ctx, msg.WarehouseID)

	_, err := s.Execute(ctx, &ForecastRequest{WarehouseID: msg.WarehouseID, Days: msg.Days, Order: msg.Order})
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) && !svcErr.Retryable() {
		logging.FromContext(ctx).Warn("Forecast request rejected", "code", svcErr.Code, "error", svcErr.Message)
		return nil
	}
	logging.FromContext(ctx).Error("Forecast request failed", "error", err)
	return err
}

func (s *ForecastService) publish(ctx context.Context, resp *models.ForecastResponse) {
	if s.publisher == nil || s.eventSubject == "" {
		return
	}

	payload, err := s.codec.Encode(models.ForecastEvent{
		RunID:       resp.RunID,
		WarehouseID: resp.WarehouseID,
		Method:      resp.Model.Method,
		Label:       resp.Model.Label,
		GeneratedAt: resp.GeneratedAt,
		Predictions: resp.Predictions,
	})
	if err != nil {
		s.logger.Error("Failed to encode forecast event", "run_id", resp.RunID, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utils.PublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, s.eventSubject, payload); err != nil {
		s.logger.Warn("Failed to publish forecast event",
			"run_id", resp.RunID, "subject", s.eventSubject, "error", err)
	}
}

func resolvedOrder(info forecast.ModelInfo) int {
	if p, ok := info.Parameters["p"].(int); ok {
		return p
	}
	return 0
}
