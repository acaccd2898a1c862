package livefeed

import (
	"encoding/json"
	"fmt"

	"candle-feed/src/helpers"
	"candle-feed/src/logger"
	"candle-feed/src/metrics"
	"candle-feed/src/models"
)

// broadcaster serializes a candle once and writes it to each subscriber's
// channel. A failing channel never affects the others.
type broadcaster struct {
	logger *logger.Logger
	errors *helpers.ErrorHandler
}

// -----------------------------------------------------------------------------

// broadcast returns the number of successful deliveries.
func (b *broadcaster) broadcast(key models.InstrumentKey, subs []*Subscriber, candle models.MCandle, kind string) int {
	if len(subs) == 0 {
		return 0
	}

	payload, err := json.Marshal(candle)
	if err != nil {
		b.logger.Error("Failed to encode candle for %s: %v", key, err)
		return 0
	}

	delivered := 0
	for _, s := range subs {
		if s.removed.Load() {
			continue
		}
		err := write(s, payload)
		metrics.OnPush(kind, err)
		if err != nil {
			b.errors.Handle(helpers.NewChannelError(s.ID, err), "broadcast "+key.String())
			continue
		}
		delivered++
	}

	b.logger.Debug("Pushed %s candle for %s to %d/%d subscribers", kind, key, delivered, len(subs))
	return delivered
}

// -----------------------------------------------------------------------------

func write(s *Subscriber, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("push channel panicked: %v", r)
		}
	}()
	return s.Channel.Write(payload)
}
