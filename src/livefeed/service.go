package livefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"candle-feed/src/helpers"
	"candle-feed/src/interfaces"
	"candle-feed/src/logger"
	"candle-feed/src/metrics"
	"candle-feed/src/models"
)

// Options tune the poller cadence and the upstream call budgets.
type Options struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	SeedTimeout    time.Duration

	// Now overrides the wall clock; nil means time.Now
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 700 * time.Millisecond
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 2 * time.Second
	}
	if o.SeedTimeout <= 0 {
		o.SeedTimeout = 3 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// -----------------------------------------------------------------------------

// Service multiplexes any number of viewers onto one upstream poll per
// instrument and pushes the running intraday candle to them.
type Service struct {
	opts Options

	quotes interfaces.IQuoteProvider
	probe  interfaces.IConnectivityProbe
	seeds  interfaces.ISeedProvider
	clock  interfaces.ISessionClock

	registry    *registry
	broadcaster *broadcaster
	errors      *helpers.ErrorHandler
	logger      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ interfaces.ILiveFeed = (*Service)(nil)

// NewService builds the live feed. seeds may be nil to disable warm starts.
func NewService(
	opts Options,
	quotes interfaces.IQuoteProvider,
	probe interfaces.IConnectivityProbe,
	seeds interfaces.ISeedProvider,
	clock interfaces.ISessionClock,
	l *logger.Logger,
) *Service {
	if l == nil {
		l = logger.NewLogger(nil, "LiveFeed")
	}
	errHandler := helpers.NewErrorHandler(l)
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		opts:        opts.withDefaults(),
		quotes:      quotes,
		probe:       probe,
		seeds:       seeds,
		clock:       clock,
		registry:    newRegistry(),
		broadcaster: &broadcaster{logger: l, errors: errHandler},
		errors:      errHandler,
		logger:      l,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// -----------------------------------------------------------------------------

func (s *Service) now() time.Time {
	return s.opts.Now()
}

// -----------------------------------------------------------------------------

// Subscribe registers a viewer. The first viewer of an instrument starts its
// poller after installing the placeholder candle; later viewers wait for the
// placeholder and then receive the next scheduled push.
func (s *Service) Subscribe(ctx context.Context, subscriberID string, key models.InstrumentKey, ch interfaces.IPushChannel) error {
	if subscriberID == "" {
		return errors.New("subscriber id is required")
	}
	if key.Exchange == "" || key.Symbol == "" || key.Token == "" {
		return fmt.Errorf("incomplete instrument key %q", key.String())
	}
	if ch == nil {
		return errors.New("push channel is required")
	}

	sub := &Subscriber{ID: subscriberID, Key: key, Channel: ch}
	p, created, err := s.registry.add(sub, func() *poller { return newPoller(s, key) })
	if err != nil {
		return err
	}
	s.updateGauges()

	if created {
		s.logger.Info("Starting poller for %s (subscriber %s)", key, subscriberID)
		p.warmStart(ctx)
		p.start(s.ctx)
		return nil
	}

	s.logger.Debug("Subscriber %s joined %s", subscriberID, key)
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		s.Unsubscribe(subscriberID)
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// Unsubscribe is idempotent. Removing the last viewer of an instrument stops
// its poller and discards the candle before returning.
func (s *Service) Unsubscribe(subscriberID string) {
	sub, orphan := s.registry.remove(subscriberID)
	if sub == nil {
		return
	}
	s.updateGauges()

	if orphan != nil {
		orphan.stop()
		s.logger.Info("Stopped poller for %s (last subscriber %s left)", orphan.key, subscriberID)
		return
	}
	s.logger.Debug("Subscriber %s left %s", subscriberID, sub.Key)
}

// -----------------------------------------------------------------------------

func (s *Service) Status() models.MStatus {
	total, refs := s.registry.snapshot()

	st := models.MStatus{
		ActiveSubscribers: total,
		ActivePollers:     len(refs),
		Keys:              make([]string, 0, len(refs)),
		IsSessionOpen:     s.clock.IsSessionOpen("", s.now()),
		Pollers:           make([]models.MPollerStatus, 0, len(refs)),
	}
	for _, r := range refs {
		st.Keys = append(st.Keys, r.poller.key.String())
		st.Pollers = append(st.Pollers, r.poller.status(r.refs))
	}
	return st
}

// -----------------------------------------------------------------------------

// Snapshot returns the current candle for key, if a poller holds one.
func (s *Service) Snapshot(key models.InstrumentKey) (models.MCandle, bool) {
	p := s.registry.lookup(key)
	if p == nil {
		return models.MCandle{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.snapshot()
}

// -----------------------------------------------------------------------------

// Close stops every poller and waits for their loops to exit. Subscribe fails
// with ErrFeedClosed afterwards.
func (s *Service) Close() {
	pollers := s.registry.close()
	for _, p := range pollers {
		p.stop()
	}
	s.cancel()
	s.wg.Wait()
	s.updateGauges()

	s.logger.Info("Live feed closed (%d pollers stopped)", len(pollers))
}

// -----------------------------------------------------------------------------

// fetchSeed asks the seed provider once; any failure degrades to no seed.
func (s *Service) fetchSeed(ctx context.Context, key models.InstrumentKey) *models.MSeedCandle {
	if s.seeds == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, s.opts.SeedTimeout)
	defer cancel()

	seed, err := s.seeds.GetSeed(sctx, key)
	if err != nil {
		s.errors.Handle(helpers.NewSeedError("seed lookup for "+key.String(), err), "warm start")
		return nil
	}
	return seed
}

// -----------------------------------------------------------------------------

func (s *Service) updateGauges() {
	subs, pollers := s.registry.counts()
	metrics.ActiveSubscribers.Set(float64(subs))
	metrics.ActivePollers.Set(float64(pollers))
}
