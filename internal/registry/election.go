package registry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/soltixdb/depotcast/internal/logging"
)

const (
	electionPrefix = "/depotcast/election/scheduler"
	retryDelay     = 2 * time.Second
	resignTimeout  = 5 * time.Second
)

// Election campaigns for scheduler leadership. Only the leader runs the
// periodic forecast refresh, so several instances sharing one registry do
// not refresh the same warehouses concurrently.
type Election struct {
	client *clientv3.Client
	id     string
	ttl    int
	logger *logging.Logger
	leader atomic.Bool
}

// NewElection creates an election candidate named id
func NewElection(client *clientv3.Client, id string, ttl int, logger *logging.Logger) *Election {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &Election{
		client: client,
		id:     id,
		ttl:    ttl,
		logger: logger.With("instance_id", id),
	}
}

// IsLeader reports whether this instance currently holds leadership
func (e *Election) IsLeader() bool {
	return e.leader.Load()
}

// Run campaigns until ctx is done, campaigning again whenever the session
// is lost. Leadership is resigned on return.
func (e *Election) Run(ctx context.Context) error {
	for {
		err := e.campaign(ctx)
		e.leader.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		e.logger.Warn("Leadership lost, campaigning again", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

func (e *Election) campaign(ctx context.Context) error {
	session, err := concurrency.NewSession(e.client, concurrency.WithTTL(e.ttl), concurrency.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() { _ = session.Close() }()

	election := concurrency.NewElection(session, electionPrefix)
	if err := election.Campaign(ctx, e.id); err != nil {
		return fmt.Errorf("campaign failed: %w", err)
	}

	e.leader.Store(true)
	e.logger.Info("Elected scheduler leader")

	select {
	case <-ctx.Done():
		resignCtx, cancel := context.WithTimeout(context.Background(), resignTimeout)
		defer cancel()
		if err := election.Resign(resignCtx); err != nil {
			e.logger.Warn("Failed to resign leadership", "error", err)
		}
		return ctx.Err()
	case <-session.Done():
		return errors.New("session expired")
	}
}
