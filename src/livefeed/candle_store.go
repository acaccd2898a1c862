package livefeed

import (
	"time"

	"candle-feed/src/models"
)

// candleStore holds one instrument's running candle and the copy taken at the
// last successful tick. It is owned by that instrument's poller, which is the
// only writer; all access happens under the poller's mutex.
type candleStore struct {
	current  *models.MCandle
	lastGood *models.MCandle
}

// -----------------------------------------------------------------------------

// installPlaceholder creates the pre-live candle, seeded when a seed exists.
func (s *candleStore) installPlaceholder(seed *models.MSeedCandle, now time.Time, sessionOpen bool) models.MCandle {
	c := &models.MCandle{
		TimestampSeconds: now.Unix(),
		IsLive:           false,
		IsSessionOpen:    sessionOpen,
	}
	if seed != nil {
		c.Open = seed.Open
		c.High = seed.High
		c.Low = seed.Low
		c.Close = seed.Close
		c.Last = seed.Close
	}
	s.current = c
	return *c
}

// -----------------------------------------------------------------------------

// apply folds one observed price into the candle and records the result as
// last known good.
func (s *candleStore) apply(price float64, at time.Time) models.MCandle {
	if s.current == nil {
		s.current = &models.MCandle{}
	}
	ApplyPrice(s.current, price, at)

	good := *s.current
	s.lastGood = &good
	return good
}

// -----------------------------------------------------------------------------

func (s *candleStore) snapshot() (models.MCandle, bool) {
	if s.current == nil {
		return models.MCandle{}, false
	}
	return *s.current, true
}

// -----------------------------------------------------------------------------

// closedSnapshot is the last known good candle as shown while the session is
// closed. The timestamp is left at the last live tick.
func (s *candleStore) closedSnapshot() (models.MCandle, bool) {
	if s.lastGood == nil {
		return models.MCandle{}, false
	}
	c := *s.lastGood
	c.IsLive = false
	c.IsSessionOpen = false
	return c, true
}

// -----------------------------------------------------------------------------

func (s *candleStore) reset() {
	s.current = nil
	s.lastGood = nil
}

// -----------------------------------------------------------------------------

// ApplyPrice updates c with a live price observed at `at`.
//
// A candle with no live data and no open (no seed) starts from the first price
// on all four fields, so it never carries a false low of zero.
func ApplyPrice(c *models.MCandle, price float64, at time.Time) {
	if !c.IsLive && c.Open <= 0 {
		c.Open = price
		c.High = price
		c.Low = price
	} else {
		if price > c.High {
			c.High = price
		}
		if c.Open > c.High {
			c.High = c.Open
		}

		low := c.Low
		if low <= 0 {
			low = price
		}
		if price < low {
			low = price
		}
		if c.Open > 0 && c.Open < low {
			low = c.Open
		}
		c.Low = low
	}

	c.Last = price
	c.Close = price
	c.TimestampSeconds = at.Unix()
	c.IsLive = true
	c.IsSessionOpen = true
}
