package main

import (
	"context"

	"candle-feed/src/logger"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

// startServers runs the HTTP and gRPC servers in g
func startServers(ctx context.Context, g *errgroup.Group, a *app, appLogger *logger.Logger) {
	// 1. HTTP (SSE, WebSocket, status, metrics)
	g.Go(func() error {
		if err := a.http.Start(); err != nil {
			appLogger.Error("HTTP server failed: %v", err)
			return err
		}
		return nil
	})

	// 2. gRPC health
	g.Go(func() error {
		if err := a.grpc.Start(ctx); err != nil {
			appLogger.Error("gRPC server failed: %v", err)
			return err
		}
		return nil
	})
}

// -----------------------------------------------------------------------------

// stopServers drains both servers; open streams end when the feed closes
func stopServers(ctx context.Context, a *app, appLogger *logger.Logger) {
	if err := a.http.Stop(ctx); err != nil {
		appLogger.Warning("HTTP shutdown: %v", err)
	}
	a.grpc.Stop()
}
