package grpc_control

import (
	"context"
	"sync"
	"time"

	"candle-feed/src/interfaces"
	"candle-feed/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name of the live feed
const ServiceName = "candlefeed.LiveFeed"

// HealthService publishes upstream connectivity as gRPC health: SERVING while
// the quote source is connected, NOT_SERVING otherwise.
type HealthService struct {
	Health   *health.Server
	Probe    interfaces.IConnectivityProbe
	Logger   *logger.Logger
	Interval time.Duration

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthService creates a new instance of HealthService
func NewHealthService(probe interfaces.IConnectivityProbe, interval time.Duration, log *logger.Logger) *HealthService {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &HealthService{
		Health:   health.NewServer(),
		Probe:    probe,
		Logger:   log,
		Interval: interval,
		last:     healthpb.HealthCheckResponse_UNKNOWN,
	}
}

// -----------------------------------------------------------------------------

// Register adds the health and reflection services to grpcServer.
func (s *HealthService) Register(grpcServer *grpc.Server) {
	healthpb.RegisterHealthServer(grpcServer, s.Health)
	reflection.Register(grpcServer)
}

// -----------------------------------------------------------------------------

// Refresh samples the probe once and publishes the result.
func (s *HealthService) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.Probe.IsConnected() {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.mu.Lock()
	changed := status != s.last
	s.last = status
	s.mu.Unlock()

	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(ServiceName, status)
	if changed {
		s.Logger.Info("Health status is now %s", status)
	}
	return status
}

// -----------------------------------------------------------------------------

// Run refreshes until ctx is done, then marks every service NOT_SERVING.
func (s *HealthService) Run(ctx context.Context) {
	s.Refresh()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Health.Shutdown()
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}
