// Package refresh re-forecasts warehouses whose shipment history changed.
//
// Each warehouse gets one dedicated worker goroutine. Notifications for the
// same warehouse arriving within the quiet period collapse into a single
// refresh, and a semaphore bounds how many refreshes run at once. Workers
// exit after sitting idle.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soltixdb/depotcast/internal/logging"
)

// Refresher produces and stores a fresh forecast for one warehouse
type Refresher interface {
	Refresh(ctx context.Context, warehouseID string) error
}

// Config controls the pool
type Config struct {
	// MaxActive limits concurrent refreshes
	MaxActive int
	// Delay is the quiet period after the last notification before refreshing
	Delay time.Duration
	// IdleTimeout is how long a worker waits for work before exiting
	IdleTimeout time.Duration
	// Timeout bounds a single refresh
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxActive:   4,
		Delay:       5 * time.Second,
		IdleTimeout: 10 * time.Minute,
		Timeout:     time.Minute,
	}
}

// Stats is a snapshot of pool counters
type Stats struct {
	Workers   int   `json:"workers"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

type worker struct {
	warehouseID string
	notifyCh    chan struct{}
}

// Pool runs debounced per-warehouse refreshes
type Pool struct {
	config    Config
	logger    *logging.Logger
	refresher Refresher

	mu      sync.Mutex
	workers map[string]*worker
	stopped bool

	semaphore chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool. Zero MaxActive, IdleTimeout and Timeout take
// their defaults; a zero Delay refreshes on the first notification.
func NewPool(logger *logging.Logger, refresher Refresher, config Config) *Pool {
	d := DefaultConfig()
	if config.MaxActive <= 0 {
		config.MaxActive = d.MaxActive
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = d.IdleTimeout
	}
	if config.Timeout <= 0 {
		config.Timeout = d.Timeout
	}
	if config.Delay < 0 {
		config.Delay = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:    config,
		logger:    logger.With("component", "refresh_pool"),
		refresher: refresher,
		workers:   make(map[string]*worker),
		semaphore: make(chan struct{}, config.MaxActive),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Notify schedules a refresh of warehouseID. It never blocks.
func (p *Pool) Notify(warehouseID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	w, ok := p.workers[warehouseID]
	if !ok {
		w = &worker{warehouseID: warehouseID, notifyCh: make(chan struct{}, 1)}
		p.workers[warehouseID] = w
		p.wg.Add(1)
		go p.run(w)
	}

	select {
	case w.notifyCh <- struct{}{}:
	default:
		// a refresh is already pending
	}
}

func (p *Pool) run(w *worker) {
	defer p.wg.Done()

	idle := time.NewTimer(p.config.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-idle.C:
			if p.retire(w) {
				return
			}
			idle.Reset(p.config.IdleTimeout)

		case <-w.notifyCh:
			if !p.settle(w) {
				return
			}
			p.process(w)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.config.IdleTimeout)
		}
	}
}

// settle waits until no notification arrived for Delay
func (p *Pool) settle(w *worker) bool {
	if p.config.Delay == 0 {
		return p.ctx.Err() == nil
	}
	quiet := time.NewTimer(p.config.Delay)
	defer quiet.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return false
		case <-w.notifyCh:
			if !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(p.config.Delay)
		case <-quiet.C:
			return true
		}
	}
}

func (p *Pool) process(w *worker) {
	select {
	case p.semaphore <- struct{}{}:
	case <-p.ctx.Done():
		return
	}
	defer func() { <-p.semaphore }()

	ctx, cancel := context.WithTimeout(p.ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := p.refresher.Refresh(ctx, w.warehouseID); err != nil {
		p.failed.Add(1)
		p.logger.Warn("Import-triggered refresh failed", "warehouse_id", w.warehouseID, "error", err)
		return
	}
	p.processed.Add(1)
	p.logger.Debug("Import-triggered refresh done",
		"warehouse_id", w.warehouseID, "duration", time.Since(start))
}

// retire removes an idle worker unless a notification slipped in
func (p *Pool) retire(w *worker) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(w.notifyCh) > 0 {
		return false
	}
	delete(p.workers, w.warehouseID)
	return true
}

// Stop cancels pending and running refreshes and waits for workers to exit
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.workers = make(map[string]*worker)
	p.mu.Unlock()
}

// Stats returns current counters
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	workers := len(p.workers)
	p.mu.Unlock()
	return Stats{
		Workers:   workers,
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}
