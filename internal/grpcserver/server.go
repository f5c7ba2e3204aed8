// Package grpcserver exposes the standard gRPC health service for the
// standalone queue worker, so orchestrators can probe a process that serves
// no HTTP.
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

// ServiceName is the health service name reported for the worker.
const ServiceName = "jobimport.worker"

// Check pings one dependency.
type Check func(ctx context.Context) error

// Server is a gRPC server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks []Check
	log    logger.Logger
}

// NewServer builds the server. Status starts as NOT_SERVING until
// SetServing is called.
func NewServer(log logger.Logger, checks ...Check) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		checks: checks,
		log:    log.With(logger.String("component", "grpc-health")),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health listening", logger.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// SetServing flips the reported status.
func (s *Server) SetServing(serving bool) {
	if serving {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Watch re-runs the dependency checks every interval until ctx ends and
// reports NOT_SERVING while any of them fails.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.SetServing(s.probe(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("dependency check failed", logger.Error(err))
			return false
		}
	}
	return true
}

// Stop marks the service as shutting down and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
