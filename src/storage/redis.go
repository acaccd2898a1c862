package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/redis/go-redis/v9"
)

// RedisSeedStore reads seeds from hashes named seed:{symbol}:{token} with
// fields open, high, low and close.
type RedisSeedStore struct {
	Client *redis.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisSeedStore(cfg *models.MConfig, log *logger.Logger) *RedisSeedStore {
	return &RedisSeedStore{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.Seed.RedisAddr,
			Password:     cfg.Seed.RedisPassword,
			DB:           cfg.Seed.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}),
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Initialize pings the server so a bad address fails at startup.
func (r *RedisSeedStore) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	r.Logger.Info("RedisSeedStore connected to %s", r.Client.Options().Addr)
	return nil
}

// -----------------------------------------------------------------------------

func SeedKey(key models.InstrumentKey) string {
	return fmt.Sprintf("seed:%s:%s", key.Symbol, key.Token)
}

// -----------------------------------------------------------------------------

func (r *RedisSeedStore) GetSeed(ctx context.Context, key models.InstrumentKey) (*models.MSeedCandle, error) {
	fields, err := r.Client.HGetAll(ctx, SeedKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis seed lookup for %s: %w", key, err)
	}
	return parseSeedHash(fields)
}

// -----------------------------------------------------------------------------

// parseSeedHash returns nil for an empty hash.
func parseSeedHash(fields map[string]string) (*models.MSeedCandle, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	values := make(map[string]float64, 4)
	for _, name := range []string{"open", "high", "low", "close"} {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("seed hash missing field %q", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("seed hash field %q: %w", name, err)
		}
		values[name] = v
	}

	return &models.MSeedCandle{
		Open:  values["open"],
		High:  values["high"],
		Low:   values["low"],
		Close: values["close"],
	}, nil
}

// -----------------------------------------------------------------------------

func (r *RedisSeedStore) Close() error {
	return r.Client.Close()
}
