// Package eventbus fans schedule changes out to background consumers such
// as the state publisher.
package eventbus

import "sync"

// Bus is a type-safe publish/subscribe bus for events of type T. Publish
// never blocks: a subscriber that falls behind loses its oldest pending
// event, so the most recent one is always delivered.
type Bus[T any] struct {
	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	dropped uint64
	closed  bool
}

// New creates a new Bus.
func New[T any]() *Bus[T] { return &Bus[T]{subs: make(map[int]chan T)} }

// Publish sends the event to all subscribers.
func (b *Bus[T]) Publish(e T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
			continue
		default:
		}
		select {
		case <-ch:
			b.dropped++
		default:
		}
		select {
		case ch <- e:
		default:
			b.dropped++
		}
	}
}

// Subscribe registers a subscriber with room for buffer pending events and
// returns its channel along with a function that unsubscribes it.
func (b *Bus[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus[T]) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Dropped returns how many events were discarded for slow subscribers.
func (b *Bus[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
