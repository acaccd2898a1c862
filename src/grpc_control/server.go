package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	grpc_prom "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// GRPCServer hosts the health service on the configured port.
type GRPCServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Health *HealthService
	server *grpc.Server
}

// -----------------------------------------------------------------------------

func NewGRPCServer(cfg *models.MConfig, health *HealthService, log *logger.Logger) *GRPCServer {
	s := &GRPCServer{
		Config: cfg,
		Logger: log,
		Health: health,
	}
	s.server = newGRPCServer(log)
	health.Register(s.server)
	grpc_prom.Register(s.server)
	return s
}

// -----------------------------------------------------------------------------

func newGRPCServer(log *logger.Logger) *grpc.Server {
	onPanic := recovery.WithRecoveryHandler(func(p any) error {
		log.Error("gRPC handler panic: %v", p)
		return status.Errorf(codes.Internal, "internal error")
	})

	grpc_prom.EnableHandlingTimeHistogram()
	return grpc.NewServer(
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.ChainUnaryInterceptor(grpc_prom.UnaryServerInterceptor, recovery.UnaryServerInterceptor(onPanic)),
		grpc.ChainStreamInterceptor(grpc_prom.StreamServerInterceptor, recovery.StreamServerInterceptor(onPanic)),
	)
}

// -----------------------------------------------------------------------------

// Start serves until Stop is called or ctx is done. The health loop runs for
// the same lifetime.
func (s *GRPCServer) Start(ctx context.Context) error {
	port := s.Config.GrpcPort
	if port == 0 {
		port = 50061 // Default fallback
	}
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// -----------------------------------------------------------------------------

func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	go s.Health.Run(ctx)

	s.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *GRPCServer) Stop() {
	s.Logger.Info("Stopping gRPC server")
	s.server.GracefulStop()
}
