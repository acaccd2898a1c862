package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOnTickCountsByResult(t *testing.T) {
	before := testutil.ToFloat64(TicksTotal.WithLabelValues(TickFailed))
	OnTick(TickFailed)
	OnTick(TickFailed)
	assert.Equal(t, before+2, testutil.ToFloat64(TicksTotal.WithLabelValues(TickFailed)))
}

func TestOnPushSeparatesFailures(t *testing.T) {
	pushed := testutil.ToFloat64(PushesTotal.WithLabelValues(PushClosed))
	failed := testutil.ToFloat64(PushFailuresTotal)

	OnPush(PushClosed, nil)
	OnPush(PushClosed, errors.New("gone"))

	assert.Equal(t, pushed+1, testutil.ToFloat64(PushesTotal.WithLabelValues(PushClosed)))
	assert.Equal(t, failed+1, testutil.ToFloat64(PushFailuresTotal))
}
