package services

import (
	"context"
	"time"

	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/storage"
)

// WarehouseService manages the warehouse registry
type WarehouseService struct {
	logger     *logging.Logger
	warehouses metadata.Manager
	store      storage.Repository
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(logger *logging.Logger, warehouses metadata.Manager, store storage.Repository) *WarehouseService {
	return &WarehouseService{
		logger:     logger,
		warehouses: warehouses,
		store:      store,
	}
}

// Create registers a warehouse
func (s *WarehouseService) Create(ctx context.Context, req *models.CreateWarehouseRequest) (*models.WarehouseResponse, error) {
	w := &metadata.Warehouse{
		ID:        req.ID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		Location:  req.Location,
		CreatedAt: time.Now().UTC(),
	}
	if w.Name == "" {
		w.Name = w.ID
	}
	if err := s.warehouses.CreateWarehouse(ctx, w); err != nil {
		return nil, registryError(err, req.ID)
	}

	logging.FromContext(ctx).Info("Warehouse created", "warehouse_id", w.ID, "capacity", w.Capacity)
	resp := warehouseResponse(w)
	return &resp, nil
}

// Get returns one warehouse
func (s *WarehouseService) Get(ctx context.Context, id string) (*models.WarehouseResponse, error) {
	w, err := s.warehouses.GetWarehouse(ctx, id)
	if err != nil {
		return nil, registryError(err, id)
	}
	resp := warehouseResponse(w)
	return &resp, nil
}

// List returns all warehouses ordered by ID
func (s *WarehouseService) List(ctx context.Context) (*models.WarehouseListResponse, error) {
	list, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, registryError(err, "")
	}
	out := &models.WarehouseListResponse{Warehouses: make([]models.WarehouseResponse, len(list))}
	for i, w := range list {
		out.Warehouses[i] = warehouseResponse(w)
	}
	return out, nil
}

// Update applies the non-nil fields of req
func (s *WarehouseService) Update(ctx context.Context, id string, req *models.UpdateWarehouseRequest) (*models.WarehouseResponse, error) {
	w, err := s.warehouses.GetWarehouse(ctx, id)
	if err != nil {
		return nil, registryError(err, id)
	}
	if req.Name != nil {
		w.Name = *req.Name
	}
	if req.Capacity != nil {
		w.Capacity = *req.Capacity
	}
	if req.Location != nil {
		w.Location = *req.Location
	}
	if err := s.warehouses.UpdateWarehouse(ctx, w); err != nil {
		return nil, registryError(err, id)
	}

	logging.FromContext(ctx).Info("Warehouse updated", "warehouse_id", id)
	resp := warehouseResponse(w)
	return &resp, nil
}

// Delete unregisters a warehouse and drops its stored history
func (s *WarehouseService) Delete(ctx context.Context, id string) error {
	if err := s.warehouses.DeleteWarehouse(ctx, id); err != nil {
		return registryError(err, id)
	}
	if err := s.store.DeleteWarehouse(ctx, id); err != nil {
		return storageError(err, "warehouse removed but its history could not be deleted")
	}
	logging.FromContext(ctx).Info("Warehouse deleted", "warehouse_id", id)
	return nil
}
