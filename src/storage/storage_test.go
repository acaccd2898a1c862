package storage

import (
	"context"
	"path/filepath"
	"testing"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reliance = models.InstrumentKey{Exchange: "NSE", Symbol: "RELIANCE", Token: "2885"}

func openSQLite(t *testing.T) *SQLiteSeedStore {
	t.Helper()
	cfg := &models.MConfig{Seed: models.MSeedConfig{DBType: "sqlite", DBPath: filepath.Join(t.TempDir(), "nested", "seed.db")}}

	provider, err := NewSeedProvider(cfg, logger.NewLogger(nil, "test"))
	require.NoError(t, err)
	store, ok := provider.(*SQLiteSeedStore)
	require.True(t, ok)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSeedReturnsLatestSession(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDailyCandles(ctx, []models.MDailyCandle{
		{Symbol: "RELIANCE", Token: "2885", TradeDate: "2024-03-08", Open: 2400, High: 2450, Low: 2390, Close: 2440},
		{Symbol: "RELIANCE", Token: "2885", TradeDate: "2024-03-11", Open: 2500, High: 2520, Low: 2490, Close: 2505},
		{Symbol: "TCS", Token: "11536", TradeDate: "2024-03-11", Open: 4000, High: 4010, Low: 3990, Close: 4005},
	}))

	seed, err := store.GetSeed(ctx, reliance)
	require.NoError(t, err)
	assert.Equal(t, &models.MSeedCandle{Open: 2500, High: 2520, Low: 2490, Close: 2505}, seed)
}

func TestSQLiteSeedUpsertsAndMisses(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	row := models.MDailyCandle{Symbol: "RELIANCE", Token: "2885", TradeDate: "2024-03-11", Open: 1, High: 1, Low: 1, Close: 1}
	require.NoError(t, store.SaveDailyCandles(ctx, []models.MDailyCandle{row}))
	row.Close = 2505
	require.NoError(t, store.SaveDailyCandles(ctx, []models.MDailyCandle{row}))

	seed, err := store.GetSeed(ctx, reliance)
	require.NoError(t, err)
	assert.Equal(t, 2505.0, seed.Close)

	missing, err := store.GetSeed(ctx, models.InstrumentKey{Exchange: "NSE", Symbol: "INFY", Token: "1594"})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSeedProviderDisabled(t *testing.T) {
	provider, err := NewSeedProvider(&models.MConfig{Seed: models.MSeedConfig{DBType: "none"}}, logger.NewLogger(nil, "test"))
	assert.NoError(t, err)
	assert.Nil(t, provider)

	_, err = NewSeedProvider(&models.MConfig{Seed: models.MSeedConfig{DBType: "mongo"}}, logger.NewLogger(nil, "test"))
	assert.Error(t, err)
}

func TestParseSeedHash(t *testing.T) {
	seed, err := parseSeedHash(map[string]string{"open": "2500", "high": "2520", "low": "2490", "close": "2505.5"})
	require.NoError(t, err)
	assert.Equal(t, &models.MSeedCandle{Open: 2500, High: 2520, Low: 2490, Close: 2505.5}, seed)

	seed, err = parseSeedHash(map[string]string{})
	assert.NoError(t, err)
	assert.Nil(t, seed)

	_, err = parseSeedHash(map[string]string{"open": "1", "high": "1", "low": "1"})
	assert.Error(t, err)

	_, err = parseSeedHash(map[string]string{"open": "x", "high": "1", "low": "1", "close": "1"})
	assert.Error(t, err)
}

func TestKeyNaming(t *testing.T) {
	assert.Equal(t, "seed:RELIANCE:2885", SeedKey(reliance))
	assert.Equal(t, "candle_feed", SchemaName("candle-feed"))
	assert.Equal(t, "public", SchemaName(""))
}
