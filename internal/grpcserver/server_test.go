package grpcserver_test

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/shivambatholiya/knovator-job-import/internal/grpcserver"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

func dial(t *testing.T, srv *grpcserver.Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func status(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestHealth_SetServing(t *testing.T) {
	srv := grpcserver.NewServer(logger.NewNop())
	client := dial(t, srv)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, grpcserver.ServiceName))

	srv.SetServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, grpcserver.ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, client, ""))

	srv.SetServing(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, client, ""))
}

func TestHealth_WatchFollowsChecks(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := grpcserver.NewServer(logger.NewNop(), func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("redis down")
	})
	client := dial(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Watch(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return status(t, client, grpcserver.ServiceName) == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	healthy.Store(false)
	assert.Eventually(t, func() bool {
		return status(t, client, grpcserver.ServiceName) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}
