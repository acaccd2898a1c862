package storage

import (
	"fmt"

	"candle-feed/src/interfaces"
	"candle-feed/src/logger"
	"candle-feed/src/models"
)

// NewSeedProvider opens the seed source selected by seed.db_type. It returns
// nil, nil when seeding is disabled.
func NewSeedProvider(cfg *models.MConfig, log *logger.Logger) (interfaces.ISeedProvider, error) {
	switch cfg.Seed.DBType {
	case "", "none":
		log.Info("Seed source disabled. Candles start empty.")
		return nil, nil
	case "sqlite":
		store := NewSQLiteSeedStore(cfg, log)
		if err := store.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite seed store: %w", err)
		}
		return store, nil
	case "postgres":
		store := NewPostgresSeedStore(cfg, log)
		if err := store.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize postgres seed store: %w", err)
		}
		return store, nil
	case "redis":
		store := NewRedisSeedStore(cfg, log)
		if err := store.Initialize(); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported seed db_type: %s", cfg.Seed.DBType)
	}
}
