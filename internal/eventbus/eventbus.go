package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event represents an arbitrary event passed on the bus.
type Event = any

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

const defaultBuffer = 64

// Bus is the default EventBus implementation using fan-out channels.
// Publishing never blocks: events for a full subscriber are dropped and
// counted.
type Bus struct {
	mu      sync.RWMutex
	subs    []chan Event
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// New creates a Bus whose subscriber channels hold buffer events. A
// non-positive buffer selects the default.
func New(buffer ...int) *Bus {
	b := &Bus{buffer: defaultBuffer}
	if len(buffer) > 0 && buffer[0] > 0 {
		b.buffer = buffer[0]
	}
	return b
}

// Publish sends the event to all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events discarded because a subscriber was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
