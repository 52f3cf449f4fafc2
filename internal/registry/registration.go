// Package registry announces depotcast instances in etcd and elects the one
// instance that runs scheduled work.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/models"
)

const (
	instancePrefix = "/depotcast/instances"

	// DefaultLeaseTTL is used when no positive TTL is configured, in seconds
	DefaultLeaseTTL = 10

	reregisterDelay = 2 * time.Second
)

func instanceKey(id string) string {
	return path.Join(instancePrefix, id)
}

// Registration keeps an instance key alive under a lease
type Registration struct {
	client *clientv3.Client
	ttl    int64
	logger *logging.Logger

	mu      sync.Mutex
	info    models.InstanceInfo
	leaseID clientv3.LeaseID
}

// NewRegistration creates a registration for info
func NewRegistration(client *clientv3.Client, info models.InstanceInfo, ttl int, logger *logging.Logger) *Registration {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &Registration{
		client: client,
		ttl:    int64(ttl),
		info:   info,
		logger: logger.With("instance_id", info.ID),
	}
}

// Register writes the instance key and keeps its lease alive until ctx is
// done. A lost lease is re-granted.
func (r *Registration) Register(ctx context.Context) error {
	lease, err := r.client.Grant(ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	r.mu.Lock()
	r.leaseID = lease.ID
	r.info.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(r.info)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal instance info: %w", err)
	}

	if _, err := r.client.Put(ctx, instanceKey(r.info.ID), string(data), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	r.logger.Info("Instance registered",
		"http_address", r.info.HTTPAddress,
		"lease_id", int64(lease.ID),
		"ttl", r.ttl)

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to start keep-alive: %w", err)
	}
	go r.keepAlive(ctx, ch)
	return nil
}

func (r *Registration) keepAlive(ctx context.Context, ch <-chan *clientv3.LeaseKeepAliveResponse) {
	for {
		select {
		case <-ctx.Done():
			return
		case ka, ok := <-ch:
			if ok {
				if ka != nil {
					r.logger.Debug("Heartbeat sent", "ttl", ka.TTL)
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("Keep-alive channel closed, re-registering")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reregisterDelay):
			}
			if err := r.Register(ctx); err != nil {
				r.logger.Error("Failed to re-register", "error", err)
			}
			return
		}
	}
}

// LeaseID returns the current lease, zero before Register
func (r *Registration) LeaseID() clientv3.LeaseID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaseID
}

// Deregister deletes the instance key and revokes its lease
func (r *Registration) Deregister(ctx context.Context) error {
	_, err := r.client.Delete(ctx, instanceKey(r.info.ID))
	if err != nil {
		r.logger.Error("Failed to delete instance key", "error", err)
	}

	if leaseID := r.LeaseID(); leaseID != 0 {
		if _, rerr := r.client.Revoke(ctx, leaseID); rerr != nil {
			r.logger.Error("Failed to revoke lease", "error", rerr)
			if err == nil {
				err = rerr
			}
		}
	}

	r.logger.Info("Instance deregistered")
	return err
}

// Instances lists the registered instances ordered by ID
func Instances(ctx context.Context, client *clientv3.Client) ([]models.InstanceInfo, error) {
	resp, err := client.Get(ctx, instancePrefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	out := make([]models.InstanceInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info models.InstanceInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			return nil, fmt.Errorf("corrupt instance record %s: %w", kv.Key, err)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
