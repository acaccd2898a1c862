package simulated

import (
	"context"
	"testing"

	"candle-feed/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedQuotesStayInBand(t *testing.T) {
	src := NewSimulatedSource(42)
	key := models.InstrumentKey{Exchange: "NSE", Symbol: "INFY", Token: "1594"}
	base := basePrice(key)

	for i := 0; i < 2000; i++ {
		q, err := src.GetQuote(context.Background(), key)
		require.NoError(t, err)
		assert.Greater(t, q.Last, 0.0)
		assert.InDelta(t, base, q.Last, base*0.2+0.05)
		assert.LessOrEqual(t, q.Low, q.Last)
		assert.GreaterOrEqual(t, q.High, q.Last)
		assert.Equal(t, base, q.Open)
	}
	assert.True(t, src.IsConnected())
}

func TestSimulatedSourceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulatedSource(1).GetQuote(ctx, models.InstrumentKey{Exchange: "NSE", Symbol: "X", Token: "1"})
	assert.ErrorIs(t, err, context.Canceled)
}
