package livefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"candle-feed/src/helpers"
	"candle-feed/src/metrics"
	"candle-feed/src/models"
)

// poller drives one instrument: a fixed-interval tick that either refreshes
// the candle from the quote provider or, while the session is closed, sends
// each viewer a single closed-session candle.
type poller struct {
	key models.InstrumentKey
	svc *Service

	// guarded by svc.registry.mu
	subs map[string]*Subscriber
	refs int

	mu       sync.Mutex
	store    candleStore
	failures int
	lastTick time.Time
	stopped  bool
	cancel   context.CancelFunc

	// closed once the placeholder candle is installed
	ready chan struct{}
}

func newPoller(svc *Service, key models.InstrumentKey) *poller {
	return &poller{
		key:   key,
		svc:   svc,
		subs:  make(map[string]*Subscriber),
		ready: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// warmStart fetches the seed and installs the placeholder candle. When the
// session is open the placeholder is pushed once so new viewers see a value
// before the first live tick.
func (p *poller) warmStart(ctx context.Context) {
	defer close(p.ready)

	seed := p.svc.fetchSeed(ctx, p.key)
	now := p.svc.now()
	open := p.svc.clock.IsSessionOpen(p.key.Exchange, now)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.store.current != nil {
		return
	}
	placeholder := p.store.installPlaceholder(seed, now, open)

	if seed != nil {
		p.svc.logger.Info("Seeded %s from previous session (open %.2f, close %.2f)", p.key, seed.Open, seed.Close)
	}
	if open {
		p.svc.broadcaster.broadcast(p.key, p.svc.registry.subscribersOf(p), placeholder, metrics.PushInitial)
	}
}

// -----------------------------------------------------------------------------

func (p *poller) start(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel

	p.svc.wg.Add(1)
	go p.run(ctx)
}

// -----------------------------------------------------------------------------

// stop cancels the loop and discards the candle. Once it returns no further
// push is made for this poller.
func (p *poller) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
	}
	p.store.reset()
}

// -----------------------------------------------------------------------------

func (p *poller) run(ctx context.Context) {
	defer p.svc.wg.Done()

	ticker := time.NewTicker(p.svc.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// tick performs one poll. Failures leave the candle untouched and are retried
// on the next tick.
func (p *poller) tick(ctx context.Context) {
	now := p.svc.now()

	if !p.svc.clock.IsSessionOpen(p.key.Exchange, now) {
		p.quiesce(now)
		return
	}

	if !p.svc.probe.IsConnected() {
		p.svc.errors.Handle(helpers.ErrNotConnected, "tick "+p.key.String())
		metrics.OnTick(metrics.TickDisconnected)
		p.mu.Lock()
		p.lastTick = now
		p.mu.Unlock()
		return
	}

	quote, err := p.fetchQuote(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.lastTick = now

	if err != nil {
		p.failures++
		p.svc.errors.Handle(err, fmt.Sprintf("tick %s (consecutive failures: %d)", p.key, p.failures))
		metrics.OnTick(metrics.TickFailed)
		return
	}

	candle := p.store.apply(quote.Last, now)
	if p.failures > 0 {
		p.svc.logger.Info("Quotes for %s recovered after %d failed ticks", p.key, p.failures)
	}
	p.failures = 0

	subs := p.svc.registry.subscribersOf(p)
	for _, s := range subs {
		s.closedNotified.Store(false)
	}
	p.svc.broadcaster.broadcast(p.key, subs, candle, metrics.PushLive)
	metrics.OnTick(metrics.TickLive)
}

// -----------------------------------------------------------------------------

func (p *poller) fetchQuote(ctx context.Context) (*models.MQuote, error) {
	qctx, cancel := context.WithTimeout(ctx, p.svc.opts.RequestTimeout)
	defer cancel()

	started := time.Now()
	quote, err := p.svc.quotes.GetQuote(qctx, p.key)
	metrics.UpstreamLatency.WithLabelValues(p.svc.quotes.Name()).Observe(time.Since(started).Seconds())

	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", p.key, err)
	}
	if quote == nil || quote.Last <= 0 {
		return nil, fmt.Errorf("quote %s: %w", p.key, helpers.ErrEmptyQuote)
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

func (p *poller) status(refs int) models.MPollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := models.MPollerStatus{
		Key:                 p.key.String(),
		Subscribers:         refs,
		ConsecutiveFailures: p.failures,
	}
	if !p.lastTick.IsZero() {
		st.LastTickAt = p.lastTick.Unix()
	}
	if c, ok := p.store.snapshot(); ok {
		st.IsLive = c.IsLive
	}
	return st
}
