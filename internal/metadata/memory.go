package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryManager is an in-process Manager for development and tests
type MemoryManager struct {
	mu         sync.RWMutex
	warehouses map[string]Warehouse
}

// NewMemoryManager creates an empty in-memory registry
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{warehouses: make(map[string]Warehouse)}
}

func (m *MemoryManager) CreateWarehouse(_ context.Context, w *Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.warehouses[w.ID]; ok {
		return fmt.Errorf("%w: %s", ErrWarehouseExists, w.ID)
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	m.warehouses[w.ID] = *w
	return nil
}

func (m *MemoryManager) GetWarehouse(_ context.Context, id string) (*Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.warehouses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}
	return &w, nil
}

func (m *MemoryManager) ListWarehouses(_ context.Context) ([]*Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	warehouses := make([]*Warehouse, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		warehouses = append(warehouses, &w)
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].ID < warehouses[j].ID })
	return warehouses, nil
}

func (m *MemoryManager) UpdateWarehouse(_ context.Context, w *Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.warehouses[w.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, w.ID)
	}
	w.CreatedAt = existing.CreatedAt
	m.warehouses[w.ID] = *w
	return nil
}

func (m *MemoryManager) DeleteWarehouse(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.warehouses[id]; !ok {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}
	delete(m.warehouses, id)
	return nil
}

func (m *MemoryManager) WarehouseExists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.warehouses[id]
	return ok, nil
}

func (m *MemoryManager) ValidateWarehouse(ctx context.Context, id string) error {
	exists, _ := m.WarehouseExists(ctx, id)
	if !exists {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}
	return nil
}

func (m *MemoryManager) Close() error {
	return nil
}
