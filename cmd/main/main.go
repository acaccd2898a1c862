package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candle-feed/src/config"
	"candle-feed/src/logger"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// 2. Environment overrides (missing file is fine)
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading env file %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// 3. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 4. Setup Logger
	appLogger := logger.NewLogger(conf, conf.Name)
	defer appLogger.Sync()

	if err := run(conf, appLogger); err != nil {
		appLogger.Critical("Exited with error: %v", err)
	}
	appLogger.Info("Shutdown complete.")
}

// -----------------------------------------------------------------------------

func run(conf *config.Config, appLogger *logger.Logger) error {
	// 1. Setup Components
	app, err := setupApp(conf, appLogger)
	if err != nil {
		return err
	}
	defer app.close()

	// 2. Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// 3. Start Servers
	startServers(gctx, g, app, appLogger)

	// 4. Shutdown on signal or first server failure
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stopServers(shutdownCtx, app, appLogger)
		return nil
	})

	return g.Wait()
}
