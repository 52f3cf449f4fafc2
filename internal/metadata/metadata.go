package metadata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrWarehouseExists   = errors.New("warehouse already exists")
	ErrInvalidWarehouse  = errors.New("invalid warehouse")
)

var warehouseIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Manager manages the warehouse registry
type Manager interface {
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	GetWarehouse(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*Warehouse, error)
	UpdateWarehouse(ctx context.Context, w *Warehouse) error
	DeleteWarehouse(ctx context.Context, id string) error
	WarehouseExists(ctx context.Context, id string) (bool, error)
	// ValidateWarehouse returns ErrWarehouseNotFound when id is not registered
	ValidateWarehouse(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// Warehouse represents a registered warehouse. Capacity is the volume that
// corresponds to 100% occupancy; zero means occupancy is reported as raw
// volume.
type Warehouse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  float64   `json:"capacity"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the warehouse fields that every Manager relies on
func (w *Warehouse) Validate() error {
	if !warehouseIDPattern.MatchString(w.ID) {
		return fmt.Errorf("%w: id %q must be 1-64 letters, digits, '_' or '-'", ErrInvalidWarehouse, w.ID)
	}
	if w.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidWarehouse)
	}
	return nil
}

// Occupancy converts a daily shipment volume into the occupancy value the
// forecast runs on.
func (w *Warehouse) Occupancy(volume float64) float64 {
	if w.Capacity > 0 {
		return 100 * volume / w.Capacity
	}
	return volume
}
