package main

import (
	"candle-feed/src/config"
	datasource "candle-feed/src/data_source"
	"candle-feed/src/grpc_control"
	"candle-feed/src/interfaces"
	"candle-feed/src/livefeed"
	"candle-feed/src/logger"
	"candle-feed/src/server"
	"candle-feed/src/storage"
	"candle-feed/src/utils"
)

// app holds the wired components of one process
type app struct {
	feed   *livefeed.Service
	seeds  interfaces.ISeedProvider
	http   *server.HTTPServer
	grpc   *grpc_control.GRPCServer
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

// setupApp builds every component from config, leaf first
func setupApp(conf *config.Config, appLogger *logger.Logger) (*app, error) {
	cfg := conf.MConfig

	// 1. Upstream quotes
	source, err := datasource.NewQuoteSource(conf, logger.NewLogger(conf, "QuoteSource"))
	if err != nil {
		appLogger.Error("Failed to init quote source: %v", err)
		return nil, err
	}

	// 2. Seed source (optional)
	seeds, err := storage.NewSeedProvider(cfg, logger.NewLogger(conf, "SeedStore"))
	if err != nil {
		appLogger.Error("Failed to init seed source: %v", err)
		return nil, err
	}

	// 3. Session clock
	scheduler := utils.NewMarketScheduler(cfg.Session, cfg.Exchanges, logger.NewLogger(conf, "MarketScheduler"))

	// 4. Live feed
	feed := livefeed.NewService(livefeed.Options{
		Interval:       conf.PollInterval(),
		RequestTimeout: conf.RequestTimeout(),
		SeedTimeout:    conf.SeedTimeout(),
	}, source.Quotes, source.Probe, seeds, scheduler, logger.NewLogger(conf, "LiveFeed"))

	// 5. Transports
	httpServer := server.NewHTTPServer(cfg, feed, source.Probe, logger.NewLogger(conf, "HTTPServer"))
	health := grpc_control.NewHealthService(source.Probe, 0, logger.NewLogger(conf, "HealthService"))
	grpcServer := grpc_control.NewGRPCServer(cfg, health, logger.NewLogger(conf, "GRPCServer"))

	appLogger.Info("Components ready (upstream: %s, seed: %s, poll every %s)",
		source.Quotes.Name(), cfg.Seed.DBType, conf.PollInterval())

	return &app{
		feed:   feed,
		seeds:  seeds,
		http:   httpServer,
		grpc:   grpcServer,
		logger: appLogger,
	}, nil
}

// -----------------------------------------------------------------------------

// close releases what setupApp opened; servers are stopped separately
func (a *app) close() {
	a.feed.Close()
	if a.seeds != nil {
		if err := a.seeds.Close(); err != nil {
			a.logger.Warning("Failed to close seed source: %v", err)
		}
	}
}
