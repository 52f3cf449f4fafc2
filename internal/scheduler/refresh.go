package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
)

// WarehouseLister lists the registered warehouses
type WarehouseLister interface {
	ListWarehouses(ctx context.Context) ([]*metadata.Warehouse, error)
}

// Refresher produces and stores a fresh forecast for one warehouse
type Refresher interface {
	Refresh(ctx context.Context, warehouseID string) error
}

// RefreshJob forecasts every registered warehouse in turn. A failing
// warehouse does not stop the others.
type RefreshJob struct {
	warehouses WarehouseLister
	refresher  Refresher
	logger     *logging.Logger
	isLeader   func() bool
}

// RefreshOption configures a RefreshJob
type RefreshOption func(*RefreshJob)

// WithLeaderCheck skips runs while check reports false
func WithLeaderCheck(check func() bool) RefreshOption {
	return func(j *RefreshJob) {
		j.isLeader = check
	}
}

// NewRefreshJob creates the refresh job
func NewRefreshJob(logger *logging.Logger, warehouses WarehouseLister, refresher Refresher, opts ...RefreshOption) *RefreshJob {
	j := &RefreshJob{
		warehouses: warehouses,
		refresher:  refresher,
		logger:     logger.With("job", "forecast_refresh"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *RefreshJob) Name() string {
	return "forecast_refresh"
}

// Run returns an error joining every per-warehouse failure
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.isLeader != nil && !j.isLeader() {
		j.logger.Debug("Not the scheduler leader, skipping refresh")
		return nil
	}

	list, err := j.warehouses.ListWarehouses(ctx)
	if err != nil {
		return fmt.Errorf("list warehouses: %w", err)
	}

	var errs []error
	succeeded := 0
	for _, w := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := j.refresher.Refresh(ctx, w.ID); err != nil {
			j.logger.Warn("Warehouse refresh failed", "warehouse_id", w.ID, "error", err)
			errs = append(errs, fmt.Errorf("warehouse %s: %w", w.ID, err))
			continue
		}
		succeeded++
	}

	j.logger.Info("Forecast refresh finished",
		"warehouses", len(list), "succeeded", succeeded, "failed", len(list)-succeeded)
	return errors.Join(errs...)
}
