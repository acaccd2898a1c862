package grpc_control

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type toggleProbe struct{ up atomic.Bool }

func (p *toggleProbe) IsConnected() bool { return p.up.Load() }

func TestRefreshFollowsProbe(t *testing.T) {
	probe := &toggleProbe{}
	svc := NewHealthService(probe, time.Hour, logger.NewLogger(nil, "test"))

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, svc.Refresh())
	probe.up.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, svc.Refresh())

	resp, err := svc.Health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestHealthOverGRPC(t *testing.T) {
	probe := &toggleProbe{}
	probe.up.Store(true)
	svc := NewHealthService(probe, 10*time.Millisecond, logger.NewLogger(nil, "test"))
	srv := NewGRPCServer(&models.MConfig{}, svc, logger.NewLogger(nil, "test"))

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		srv.Stop()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}

	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, 2*time.Second, 10*time.Millisecond)
	probe.up.Store(false)
	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_NOT_SERVING }, 2*time.Second, 10*time.Millisecond)
}
