package chat

import (
	"sync"
)

// subscriptionBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events (delivery is best-effort;
// persisted state is the source of truth for history).
const subscriptionBuffer = 256

// Bus is the in-process multicast bus owned by one user's registry entry.
// Every published event is delivered to every current subscriber in publish
// order. There is no replay: a subscriber only sees events published after
// it subscribed.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscription is one subscriber's view of a Bus.
type Subscription struct {
	bus *Bus
	ch  chan Event
}

// Subscribe attaches a new subscriber. Subscribing to a closed bus returns a
// subscription whose channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{bus: b, ch: make(chan Event, subscriptionBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}

	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers ev to every current subscriber. Publishes are serialized
// under the bus lock, which is what gives each subscriber the events in
// publish order. A subscriber with a full buffer misses the event; the
// number of subscribers that received it is returned.
func (b *Bus) Publish(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Close detaches and closes every remaining subscription. Further publishes
// become no-ops and further subscriptions come back already closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Events is the subscriber's receive channel. It is closed when the
// subscription is closed or the bus is torn down.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from its bus and closes the channel.
// Safe to call after the bus itself has closed.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if _, ok := s.bus.subs[s]; !ok {
		return
	}
	delete(s.bus.subs, s)
	close(s.ch)
}
