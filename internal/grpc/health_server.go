// Package grpc serves the standard gRPC health protocol for orchestrators
// that probe over gRPC instead of HTTP.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name that aggregates every check
const ServiceName = "depotcast"

// DefaultCheckInterval is how often dependency checks are re-run
const DefaultCheckInterval = 15 * time.Second

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthServer reports SERVING while every registered check passes.
// Each check is also exposed as its own service, "depotcast.<name>".
type HealthServer struct {
	address    string
	interval   time.Duration
	logger     *logging.Logger
	grpcServer *grpc.Server
	health     *health.Server

	mu     sync.Mutex
	checks map[string]Check
}

// NewHealthServer creates a health server bound to address
func NewHealthServer(address string, logger *logging.Logger) *HealthServer {
	return &HealthServer{
		address:  address,
		interval: DefaultCheckInterval,
		logger:   logger,
		health:   health.NewServer(),
		checks:   make(map[string]Check),
	}
}

// AddCheck registers a dependency check. Call before Start.
func (s *HealthServer) AddCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetInterval changes the check period
func (s *HealthServer) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start listens on the configured address and serves until ctx is done
func (s *HealthServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done
func (s *HealthServer) Serve(ctx context.Context, listener net.Listener) error {
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	s.runChecks(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(listener)
	}()
	s.logger.Info("gRPC health server started", "address", listener.Addr().String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return nil
		case err := <-serveErr:
			return err
		case <-ticker.C:
			s.runChecks(ctx)
		}
	}
}

// runChecks updates the per-check and aggregate serving status
func (s *HealthServer) runChecks(ctx context.Context) {
	s.mu.Lock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := s.checks
	s.mu.Unlock()
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, utils.HealthCheckTimeout)
		err := checks[name](checkCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = status
			s.logger.Warn("Health check failed", "check", name, "error", err)
		}
		s.health.SetServingStatus(ServiceName+"."+name, status)
	}
	s.health.SetServingStatus(ServiceName, overall)
	s.health.SetServingStatus("", overall)
}

// Stop marks every service NOT_SERVING and stops the server, forcing it
// after utils.GRPCShutdownTimeout.
func (s *HealthServer) Stop() {
	if s.grpcServer == nil {
		return
	}
	s.logger.Info("Stopping gRPC health server")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(utils.GRPCShutdownTimeout):
		s.grpcServer.Stop()
	}
}
