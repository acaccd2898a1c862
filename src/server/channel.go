package server

import (
	"sync"

	"candle-feed/src/helpers"
)

// -----------------------------------------------------------------------------
// streamChannel
// -----------------------------------------------------------------------------

// streamChannel is the push channel handed to the live feed. Write only queues
// into a bounded buffer; the transport goroutine drains it. A full buffer
// means the viewer is too slow, so the channel quits instead of blocking the
// poller.
type streamChannel struct {
	id   string
	send chan []byte
	quit chan struct{}

	quitOnce   sync.Once
	finishOnce sync.Once

	mu        sync.Mutex
	callbacks []func()
	finished  bool
}

func newStreamChannel(id string, buffer int) *streamChannel {
	if buffer < 1 {
		buffer = 1
	}
	return &streamChannel{
		id:   id,
		send: make(chan []byte, buffer),
		quit: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

func (c *streamChannel) Write(payload []byte) error {
	select {
	case <-c.quit:
		return helpers.ErrChannelClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.signalQuit()
		return helpers.ErrChannelFull
	}
}

// -----------------------------------------------------------------------------

// OnClose callbacks run on the transport goroutine when it finishes. A
// callback registered after that runs immediately.
func (c *streamChannel) OnClose(fn func()) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		fn()
		return
	}
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (c *streamChannel) signalQuit() {
	c.quitOnce.Do(func() { close(c.quit) })
}

// finish is called by the transport when the connection is done.
func (c *streamChannel) finish() {
	c.signalQuit()
	c.finishOnce.Do(func() {
		c.mu.Lock()
		c.finished = true
		callbacks := c.callbacks
		c.callbacks = nil
		c.mu.Unlock()

		for _, fn := range callbacks {
			fn()
		}
	})
}
