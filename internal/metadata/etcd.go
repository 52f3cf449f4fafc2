package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const warehousePrefix = "/depotcast/warehouses"

// EtcdManager implements Manager using etcd
type EtcdManager struct {
	client *clientv3.Client
	cache  *TTLCache[Warehouse]
}

// NewEtcdManager creates a new etcd-based warehouse registry
func NewEtcdManager(endpoints []string, dialTimeout time.Duration) (*EtcdManager, error) {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &EtcdManager{
		client: client,
		cache:  NewTTLCache[Warehouse](30 * time.Second),
	}, nil
}

func warehouseKey(id string) string {
	return path.Join(warehousePrefix, id)
}

func (m *EtcdManager) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal warehouse: %w", err)
	}

	key := warehouseKey(w.ID)
	resp, err := m.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to store warehouse in etcd: %w", err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: %s", ErrWarehouseExists, w.ID)
	}

	m.cache.Set(key, *w)
	return nil
}

func (m *EtcdManager) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	key := warehouseKey(id)

	if cached, ok := m.cache.Get(key); ok {
		return &cached, nil
	}

	resp, err := m.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse from etcd: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}

	var w Warehouse
	if err := json.Unmarshal(resp.Kvs[0].Value, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warehouse: %w", err)
	}

	m.cache.Set(key, w)
	return &w, nil
}

func (m *EtcdManager) ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	resp, err := m.client.Get(ctx, warehousePrefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses from etcd: %w", err)
	}

	warehouses := make([]*Warehouse, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var w Warehouse
		if err := json.Unmarshal(kv.Value, &w); err != nil {
			// Skip entries written by something else
			continue
		}
		warehouses = append(warehouses, &w)
	}

	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].ID < warehouses[j].ID })
	return warehouses, nil
}

func (m *EtcdManager) UpdateWarehouse(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(); err != nil {
		return err
	}

	existing, err := m.GetWarehouse(ctx, w.ID)
	if err != nil {
		return err
	}
	w.CreatedAt = existing.CreatedAt

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal warehouse: %w", err)
	}

	key := warehouseKey(w.ID)
	resp, err := m.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), ">", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to update warehouse in etcd: %w", err)
	}
	if !resp.Succeeded {
		m.cache.Delete(key)
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, w.ID)
	}

	m.cache.Set(key, *w)
	return nil
}

func (m *EtcdManager) DeleteWarehouse(ctx context.Context, id string) error {
	key := warehouseKey(id)

	resp, err := m.client.Delete(ctx, key)
	m.cache.Delete(key)
	if err != nil {
		return fmt.Errorf("failed to delete warehouse from etcd: %w", err)
	}
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}
	return nil
}

func (m *EtcdManager) WarehouseExists(ctx context.Context, id string) (bool, error) {
	key := warehouseKey(id)
	if _, ok := m.cache.Get(key); ok {
		return true, nil
	}

	resp, err := m.client.Get(ctx, key, clientv3.WithCountOnly())
	if err != nil {
		return false, fmt.Errorf("failed to check warehouse existence: %w", err)
	}
	return resp.Count > 0, nil
}

func (m *EtcdManager) ValidateWarehouse(ctx context.Context, id string) error {
	exists, err := m.WarehouseExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, id)
	}
	return nil
}

func (m *EtcdManager) Close() error {
	if m.cache != nil {
		m.cache.Stop()
	}
	return m.client.Close()
}

// Client exposes the etcd connection for components sharing it
func (m *EtcdManager) Client() *clientv3.Client {
	return m.client
}
