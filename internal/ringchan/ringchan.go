// Package ringchan provides a bounded channel with overwrite-oldest
// semantics. Producers never block: when the buffer is full the oldest
// element is discarded. The BLE advertisement callback uses this to hand
// events to the dispatch loop without ever stalling the radio event loop.
package ringchan

import "sync/atomic"

// Ring wraps a buffered channel. Writers use Send; readers range over C()
// like a normal channel.
type Ring[T any] struct {
	ch      chan T
	dropped atomic.Int64
}

// New creates a Ring with the given capacity.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel. Consumers can range over
// it until Close.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send inserts v, discarding the oldest buffered element if the ring is
// full. It never blocks. Returns true if an element was discarded.
func (r *Ring[T]) Send(v T) bool {
	dropped := false
	select {
	case r.ch <- v:
	default:
		select {
		case <-r.ch: // drop oldest
			r.dropped.Add(1)
			dropped = true
		default:
		}
		r.ch <- v
	}
	return dropped
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int { return len(r.ch) }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return cap(r.ch) }

// Dropped returns how many elements have been discarded to make room.
func (r *Ring[T]) Dropped() int64 { return r.dropped.Load() }

// Close closes the ring. Send panics after Close.
func (r *Ring[T]) Close() { close(r.ch) }
