package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyChecker struct {
	failing atomic.Bool
}

func (c *flakyChecker) Health(context.Context) error {
	if c.failing.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startBufconn(t *testing.T, c Checker, interval time.Duration) (healthpb.HealthClient, context.CancelFunc, <-chan error) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := NewHealthServer("bufconn", c, interval, logging.Nop{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		cancel()
		t.Fatalf("grpc.NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn), cancel, done
}

func status(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_ServingWhenStoreReachable(t *testing.T) {
	client, cancel, _ := startBufconn(t, &flakyChecker{}, 0)
	defer cancel()

	for _, name := range []string{"", ServiceName} {
		if got := status(t, client, name); got != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("service %q: got %v, want SERVING", name, got)
		}
	}
}

func TestHealth_ProberFlipsStatus(t *testing.T) {
	checker := &flakyChecker{}
	client, cancel, _ := startBufconn(t, checker, 10*time.Millisecond)
	defer cancel()

	checker.failing.Store(true)

	deadline := time.Now().Add(2 * time.Second)
	for status(t, client, ServiceName) != healthpb.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("status did not flip to NOT_SERVING")
		}
		time.Sleep(10 * time.Millisecond)
	}

	checker.failing.Store(false)
	deadline = time.Now().Add(2 * time.Second)
	for status(t, client, "") != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("status did not recover to SERVING")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	_, cancel, done := startBufconn(t, &flakyChecker{}, time.Hour)

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewHealthServer("127.0.0.1:99999", &flakyChecker{}, time.Second, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
