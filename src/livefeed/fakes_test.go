package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"candle-feed/src/helpers"
	"candle-feed/src/models"
)

// scriptedQuotes returns queued prices in order; an entry with err set fails
// that call. Once the script is exhausted the last price repeats.
type scriptedQuotes struct {
	mu       sync.Mutex
	script   []quoteStep
	last     quoteStep
	calls    int
	inflight int32
	maxSeen  int32
	delay    time.Duration
}

type quoteStep struct {
	price float64
	err   error
}

func (q *scriptedQuotes) Name() string { return "scripted" }

func (q *scriptedQuotes) push(steps ...quoteStep) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.script = append(q.script, steps...)
}

func (q *scriptedQuotes) GetQuote(ctx context.Context, key models.InstrumentKey) (*models.MQuote, error) {
	n := atomic.AddInt32(&q.inflight, 1)
	defer atomic.AddInt32(&q.inflight, -1)
	for {
		seen := atomic.LoadInt32(&q.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&q.maxSeen, seen, n) {
			break
		}
	}
	if q.delay > 0 {
		select {
		case <-time.After(q.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++

	step := q.last
	if len(q.script) > 0 {
		step = q.script[0]
		q.script = q.script[1:]
		q.last = step
	}
	if step.err != nil {
		return nil, step.err
	}
	return &models.MQuote{Last: step.price}, nil
}

func (q *scriptedQuotes) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// -----------------------------------------------------------------------------

type probe struct{ down atomic.Bool }

func (p *probe) IsConnected() bool { return !p.down.Load() }

// -----------------------------------------------------------------------------

type staticSeeds struct {
	mu    sync.Mutex
	seeds map[models.InstrumentKey]*models.MSeedCandle
	err   error
	calls int
}

func (s *staticSeeds) GetSeed(_ context.Context, key models.InstrumentKey) (*models.MSeedCandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.seeds[key], nil
}

func (s *staticSeeds) Close() error { return nil }

func (s *staticSeeds) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// -----------------------------------------------------------------------------

// switchClock is a session clock toggled by the test, with a settable wall time.
type switchClock struct {
	open atomic.Bool

	mu  sync.Mutex
	now time.Time
}

func newSwitchClock(now time.Time, open bool) *switchClock {
	c := &switchClock{now: now}
	c.open.Store(open)
	return c
}

func (c *switchClock) IsSessionOpen(string, time.Time) bool { return c.open.Load() }

func (c *switchClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *switchClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// -----------------------------------------------------------------------------

// recordingChannel keeps every decoded push.
type recordingChannel struct {
	mu      sync.Mutex
	pushes  []models.MCandle
	failing bool
	onClose []func()
}

func (r *recordingChannel) Write(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return helpers.ErrChannelClosed
	}
	var c models.MCandle
	if err := json.Unmarshal(payload, &c); err != nil {
		return err
	}
	r.pushes = append(r.pushes, c)
	return nil
}

func (r *recordingChannel) OnClose(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = append(r.onClose, fn)
}

func (r *recordingChannel) received() []models.MCandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MCandle(nil), r.pushes...)
}

func (r *recordingChannel) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = nil
}

// panickingChannel simulates a transport that blows up on write.
type panickingChannel struct{}

func (panickingChannel) Write([]byte) error { panic("socket gone") }
func (panickingChannel) OnClose(func())     {}

var errUpstream = errors.New("upstream 503")
