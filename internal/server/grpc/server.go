// Package grpc exposes the store's liveness over the standard
// grpc.health.v1.Health service so gRPC-aware load balancers can probe it.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the per-service name reported next to the overall "" entry.
const ServiceName = "kvstore.KV"

// Checker reports whether the backing store is reachable.
type Checker interface {
	Health(ctx context.Context) error
}

type HealthServer struct {
	address  string
	checker  Checker
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewHealthServer(a string, c Checker, interval time.Duration, l logging.Logger) *HealthServer {
	return &HealthServer{
		address:  a,
		checker:  c,
		interval: interval,
		logger:   l.With("module", "grpc_health"),
		health:   health.NewServer(),
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *HealthServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.loop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *HealthServer) loop(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probe(ctx)
		}
	}
}

// probe runs one store check and publishes the outcome for both names.
func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.Health(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn(ctx, "store health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
