// Package storage persists daily shipment volumes and forecast runs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/analytics/forecast"
)

// ErrNotFound is returned when a warehouse has no stored forecast run
var ErrNotFound = errors.New("not found")

// dayLayout is the on-disk representation of a calendar day
const dayLayout = time.DateOnly

// ShipmentDay is the total shipment volume recorded for one calendar day
type ShipmentDay struct {
	Date   time.Time
	Volume float64
}

// Run is a persisted forecast
type Run struct {
	ID          string
	WarehouseID string
	Method      forecast.Method
	Label       string
	Order       int
	Horizon     int
	DataPoints  int
	Predictions []forecast.ForecastPoint
	CreatedAt   time.Time
}

// Repository is implemented by every storage backend
type Repository interface {
	// UpsertShipments writes one volume per day, replacing existing days
	UpsertShipments(ctx context.Context, warehouseID string, days []ShipmentDay) (int, error)

	// DailySeries returns stored volumes ordered by day. A zero from or to
	// leaves that side of the range open.
	DailySeries(ctx context.Context, warehouseID string, from, to time.Time) (analytics.TimeSeriesData, error)

	SaveForecastRun(ctx context.Context, run Run) error

	// LatestForecastRun returns ErrNotFound when nothing was stored yet
	LatestForecastRun(ctx context.Context, warehouseID string) (*Run, error)

	// ListForecastRuns returns up to limit runs, newest first
	ListForecastRuns(ctx context.Context, warehouseID string, limit int) ([]Run, error)

	// DeleteWarehouse drops shipments and runs of a warehouse
	DeleteWarehouse(ctx context.Context, warehouseID string) error

	Close() error
}

func formatDay(t time.Time) string {
	return analytics.DateOf(t).Format(dayLayout)
}
