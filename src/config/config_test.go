package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: candle-feed
host: 127.0.0.1
port: 8090
upstream:
  mode: simulated
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 700*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 3*time.Second, cfg.SeedTimeout())
	assert.Equal(t, "Asia/Kolkata", cfg.Session.Timezone)
	assert.Equal(t, "09:15", cfg.Session.Open)
	assert.Equal(t, "15:30", cfg.Session.Close)
	assert.Equal(t, "none", cfg.Seed.DBType)
	assert.Equal(t, DefaultSendBuffer, cfg.Transport.SendBuffer)
	assert.Equal(t, "INFO", cfg.GetLogLevel())
	assert.Equal(t, 30*time.Second, cfg.RejectCooldown())
}

func TestParseEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("CANDLE_FEED_PORT", "9100")
	t.Setenv("CANDLE_FEED_POLLER_INTERVAL_MS", "250")
	t.Setenv("CANDLE_FEED_SEED_DB_TYPE", "redis")
	t.Setenv("CANDLE_FEED_SEED_REDIS_ADDR", "localhost:6379")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "redis", cfg.Seed.DBType)
	assert.Equal(t, "localhost:6379", cfg.Seed.RedisAddr)
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing name":        "host: 127.0.0.1\nport: 8090\nupstream: {mode: simulated}\n",
		"low port":            "name: x\nhost: 127.0.0.1\nport: 80\nupstream: {mode: simulated}\n",
		"broker without url":  "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: broker, api_key: k}\n",
		"unknown mode":        "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: carrier-pigeon}\n",
		"sqlite without path": "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: simulated}\nseed: {db_type: sqlite}\n",
		"inverted session":    "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: simulated}\nsession: {open: '15:30', close: '09:15'}\n",
		"malformed clock":     "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: simulated}\nsession: {open: '9am'}\n",
		"negative cooldown":   "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: simulated, reject_cooldown_ms: -1}\n",
		"bad exchange window": "name: x\nhost: 127.0.0.1\nport: 8090\nupstream: {mode: simulated}\nexchange_sessions: {MCX: {open: '23:30', close: '09:00'}}\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestNewConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "candle-feed", cfg.Name)

	_, err = NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("09:15")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+15*time.Minute, d)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}
