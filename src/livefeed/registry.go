package livefeed

import (
	"sort"
	"sync"
	"sync/atomic"

	"candle-feed/src/helpers"
	"candle-feed/src/interfaces"
	"candle-feed/src/models"
)

// Subscriber is one viewer of one instrument.
type Subscriber struct {
	ID      string
	Key     models.InstrumentKey
	Channel interfaces.IPushChannel

	// closedNotified suppresses repeat closed-session pushes until the next
	// live tick. Only the key's poller touches it after registration.
	closedNotified atomic.Bool
	removed        atomic.Bool
}

// -----------------------------------------------------------------------------

type pollerRef struct {
	poller *poller
	refs   int
}

// registry owns subscriber bookkeeping and the per-key reference counts that
// drive poller lifecycle. Poller subs and refs fields are guarded by mu.
type registry struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	pollers     map[models.InstrumentKey]*poller
	closed      bool
}

func newRegistry() *registry {
	return &registry{
		subscribers: make(map[string]*Subscriber),
		pollers:     make(map[models.InstrumentKey]*poller),
	}
}

// -----------------------------------------------------------------------------

// add registers sub and returns its key's poller, creating it when the
// reference count goes from 0 to 1.
func (r *registry) add(sub *Subscriber, create func() *poller) (*poller, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, helpers.ErrFeedClosed
	}
	if _, dup := r.subscribers[sub.ID]; dup {
		return nil, false, helpers.ErrDuplicateSubscriber
	}

	p, exists := r.pollers[sub.Key]
	if !exists {
		p = create()
		r.pollers[sub.Key] = p
	}
	p.subs[sub.ID] = sub
	p.refs++
	r.subscribers[sub.ID] = sub

	return p, !exists, nil
}

// -----------------------------------------------------------------------------

// remove unregisters id. When the key's reference count drops to zero the
// poller is detached and returned so the caller can stop it outside the lock.
func (r *registry) remove(id string) (*Subscriber, *poller) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscribers[id]
	if !ok {
		return nil, nil
	}
	delete(r.subscribers, id)
	sub.removed.Store(true)

	p := r.pollers[sub.Key]
	if p == nil {
		return sub, nil
	}
	delete(p.subs, id)
	p.refs--
	if p.refs > 0 {
		return sub, nil
	}

	delete(r.pollers, sub.Key)
	return sub, p
}

// -----------------------------------------------------------------------------

func (r *registry) subscribersOf(p *poller) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		out = append(out, s)
	}
	return out
}

// -----------------------------------------------------------------------------

func (r *registry) lookup(key models.InstrumentKey) *poller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pollers[key]
}

// -----------------------------------------------------------------------------

func (r *registry) counts() (subscribers, pollers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers), len(r.pollers)
}

// -----------------------------------------------------------------------------

// snapshot returns the subscriber total and the active pollers ordered by key.
func (r *registry) snapshot() (int, []pollerRef) {
	r.mu.RLock()
	refs := make([]pollerRef, 0, len(r.pollers))
	for _, p := range r.pollers {
		refs = append(refs, pollerRef{poller: p, refs: p.refs})
	}
	total := len(r.subscribers)
	r.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].poller.key.String() < refs[j].poller.key.String()
	})
	return total, refs
}

// -----------------------------------------------------------------------------

// close refuses further subscriptions and detaches every poller.
func (r *registry) close() []*poller {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	out := make([]*poller, 0, len(r.pollers))
	for key, p := range r.pollers {
		for id, s := range p.subs {
			s.removed.Store(true)
			delete(p.subs, id)
		}
		p.refs = 0
		out = append(out, p)
		delete(r.pollers, key)
	}
	r.subscribers = make(map[string]*Subscriber)
	return out
}
