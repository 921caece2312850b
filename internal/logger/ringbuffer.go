package logger

import "sync"

// RingBuffer is a fixed-capacity circular buffer; the oldest item is
// overwritten once it is full.
type RingBuffer[T any] struct {
	items []T
	start int
	count int
	mu    sync.RWMutex
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push appends an item.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.items)
	r.items[(r.start+r.count)%size] = item
	if r.count < size {
		r.count++
		return
	}
	r.start = (r.start + 1) % size
}

// GetAll returns all items in order from oldest to newest.
func (r *RingBuffer[T]) GetAll() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.count)
	for i := range out {
		out[i] = r.items[(r.start+i)%len(r.items)]
	}
	return out
}

// Len returns the current number of items in the buffer.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
