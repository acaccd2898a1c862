package livefeed

import (
	"time"

	"candle-feed/src/metrics"
)

// quiesce runs the closed-session tick: no upstream call, and each viewer gets
// the last known good candle flagged closed exactly once until the next live
// tick. Without a last known good candle nothing is sent.
func (p *poller) quiesce(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.lastTick = now
	metrics.OnTick(metrics.TickClosed)

	closed, ok := p.store.closedSnapshot()
	if !ok {
		return
	}

	var pending []*Subscriber
	for _, s := range p.svc.registry.subscribersOf(p) {
		if !s.closedNotified.Load() {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return
	}

	p.svc.broadcaster.broadcast(p.key, pending, closed, metrics.PushClosed)

	// A failed write still counts as notified
	for _, s := range pending {
		s.closedNotified.Store(true)
	}
}
