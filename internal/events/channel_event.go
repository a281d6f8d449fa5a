package events

import (
	"sync"
)

// ChannelEvent provides pub/sub behavior using channels.
// T is the type of the value sent to channels.
//
// With retainLast set, the event also acts as a single-slot value holder:
// every Notify atomically replaces the held value, Latest returns it, and new
// listeners receive it as soon as they register.
type ChannelEvent[T any] struct {
	mu         sync.RWMutex
	channels   map[uint64]chan<- T
	nextID     uint64
	retainLast bool
	last       T
	hasLast    bool
	dropped    uint64
}

// NewChannelEvent creates a new ChannelEvent instance.
// retainLast: if true, the ChannelEvent remembers the last Notify value and
// sends it to new listeners immediately once Notify has been called.
func NewChannelEvent[T any](retainLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:   make(map[uint64]chan<- T),
		retainLast: retainLast,
	}
}

// NewValueEvent creates a retaining ChannelEvent that already holds initial,
// so Latest never reports an empty slot.
func NewValueEvent[T any](initial T) *ChannelEvent[T] {
	e := NewChannelEvent[T](true)
	e.last = initial
	e.hasLast = true
	return e
}

// Listen registers a channel to receive values when Notify is invoked.
// Returns a deregistration function that can be called to remove the listener.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	sendLast := e.retainLast && e.hasLast
	last := e.last
	e.mu.Unlock()

	// outside the lock to avoid deadlock
	if sendLast {
		e.send(ch, last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.channels, id)
			e.mu.Unlock()
		})
	}
}

// Notify sends the provided value to all registered channels.
// Sends are non-blocking: a listener whose channel is full misses the value.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.retainLast {
		e.last = value
		e.hasLast = true
	}
	targets := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		targets = append(targets, ch)
	}
	e.mu.Unlock()

	for _, ch := range targets {
		e.send(ch, value)
	}
}

// Latest returns the most recently notified value. The boolean is false when
// the event does not retain values or nothing has been notified yet.
func (e *ChannelEvent[T]) Latest() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.retainLast || !e.hasLast {
		var zero T
		return zero, false
	}
	return e.last, true
}

// Dropped returns how many sends were skipped because a listener was full.
func (e *ChannelEvent[T]) Dropped() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dropped
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}

func (e *ChannelEvent[T]) send(ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
	}
}
