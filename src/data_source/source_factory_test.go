package datasource

import (
	"testing"

	"candle-feed/src/config"
	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuoteSourceByMode(t *testing.T) {
	log := logger.NewLogger(nil, "test")

	sim, err := NewQuoteSource(&config.Config{MConfig: &models.MConfig{Upstream: models.MUpstreamConfig{Mode: "simulated"}}}, log)
	require.NoError(t, err)
	assert.Equal(t, "simulated", sim.Quotes.Name())
	assert.True(t, sim.Probe.IsConnected())

	brk, err := NewQuoteSource(&config.Config{MConfig: &models.MConfig{Upstream: models.MUpstreamConfig{
		Mode: "broker", BaseURL: "http://localhost", APIKey: "k",
	}}}, log)
	require.NoError(t, err)
	assert.Equal(t, "broker", brk.Quotes.Name())
	assert.False(t, brk.Probe.IsConnected())

	_, err = NewQuoteSource(&config.Config{MConfig: &models.MConfig{Upstream: models.MUpstreamConfig{Mode: "carrier-pigeon"}}}, log)
	assert.Error(t, err)
}
