package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/soltixdb/depotcast/internal/downsampling"
	"github.com/soltixdb/depotcast/internal/ingest"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/metrics"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/storage"
)

// ShipmentService imports shipment exports and serves occupancy history
type ShipmentService struct {
	logger     *logging.Logger
	warehouses metadata.Manager
	store      storage.Repository
	loc        *time.Location
	recorder   *metrics.Recorder
	listeners  []ImportListener
}

// ImportListener is told about every warehouse whose history changed
type ImportListener interface {
	Notify(warehouseID string)
}

// ShipmentOption configures a ShipmentService
type ShipmentOption func(*ShipmentService)

// WithImportListener registers l to be notified after each successful import
func WithImportListener(l ImportListener) ShipmentOption {
	return func(s *ShipmentService) {
		s.listeners = append(s.listeners, l)
	}
}

// NewShipmentService creates a new ShipmentService. Days are evaluated in
// loc; recorder may be nil.
func NewShipmentService(
	logger *logging.Logger,
	warehouses metadata.Manager,
	store storage.Repository,
	loc *time.Location,
	recorder *metrics.Recorder,
	opts ...ShipmentOption,
) *ShipmentService {
	if loc == nil {
		loc = time.UTC
	}
	s := &ShipmentService{
		logger:     logger,
		warehouses: warehouses,
		store:      store,
		loc:        loc,
		recorder:   recorder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import parses a CSV export for a registered warehouse and upserts the
// per-day totals. Days already stored are replaced.
func (s *ShipmentService) Import(ctx context.Context, warehouseID string, r io.Reader) (*models.ImportResponse, error) {
	if err := s.warehouses.ValidateWarehouse(ctx, warehouseID); err != nil {
		return nil, registryError(err, warehouseID)
	}

	days, err := ingest.ParseShipments(r, ingest.Options{Location: s.loc, WarehouseID: warehouseID})
	if err != nil {
		details := map[string]interface{}{"warehouse_id": warehouseID}
		var pe *ingest.ParseError
		if errors.As(err, &pe) {
			details["line"] = pe.Line
			if pe.Column != "" {
				details["column"] = pe.Column
			}
		}
		return nil, NewServiceErrorWithDetails(CodeInvalidCSV, err.Error(), details)
	}

	n, err := s.store.UpsertShipments(ctx, warehouseID, days)
	if err != nil {
		return nil, storageError(err, "failed to store shipments")
	}
	s.recorder.ObserveImport(n)

	logging.FromContext(ctx).Info("Shipments imported",
		"warehouse_id", warehouseID,
		"days", n,
		"first_date", formatDay(days[0].Date),
		"last_date", formatDay(days[len(days)-1].Date))

	for _, l := range s.listeners {
		l.Notify(warehouseID)
	}

	return &models.ImportResponse{
		WarehouseID: warehouseID,
		Days:        n,
		FirstDate:   formatDay(days[0].Date),
		LastDate:    formatDay(days[len(days)-1].Date),
	}, nil
}

// History returns the occupancy series of a warehouse within [from, to]
func (s *ShipmentService) History(ctx context.Context, warehouseID string, from, to time.Time, opts ...HistoryOption) (*models.OccupancyResponse, error) {
	var q historyQuery
	for _, opt := range opts {
		opt(&q)
	}

	w, err := s.warehouses.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, registryError(err, warehouseID)
	}

	volumes, err := s.store.DailySeries(ctx, warehouseID, from, to)
	if err != nil {
		return nil, storageError(err, "failed to load shipment history")
	}
	occupancy := ingest.OccupancySeries(volumes, w)

	unit := "volume"
	if w.Capacity > 0 {
		unit = "percent"
	}
	resp := &models.OccupancyResponse{
		WarehouseID: warehouseID,
		Capacity:    w.Capacity,
		Unit:        unit,
	}

	if len(occupancy) > 0 && q.mode != downsampling.ModeNone && q.mode != "" {
		reduced, err := downsampling.Apply(occupancy, q.mode, q.maxPoints)
		if err != nil {
			return nil, NewServiceError(CodeInvalidParameter, err.Error())
		}
		if len(reduced) < len(occupancy) {
			resp.Downsampled = string(q.mode)
			resp.SourceCount = len(occupancy)
		}
		occupancy = reduced
	}

	resp.Points = seriesPoints(occupancy)
	resp.Count = occupancy.Len()
	return resp, nil
}

type historyQuery struct {
	mode      downsampling.Mode
	maxPoints int
}

// HistoryOption shapes an occupancy history response
type HistoryOption func(*historyQuery)

// WithDownsampling reduces the history to at most maxPoints points
func WithDownsampling(mode downsampling.Mode, maxPoints int) HistoryOption {
	return func(q *historyQuery) {
		q.mode = mode
		q.maxPoints = maxPoints
	}
}
