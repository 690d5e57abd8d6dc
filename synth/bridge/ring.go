package bridge

import "sync/atomic"

// Ring is a bounded single-producer/single-consumer queue.
//
// Exactly one goroutine may call Push and exactly one goroutine may call Pop
// or Drain. Neither side blocks. Callers with several producers must
// serialize pushes themselves.
type Ring[T any] struct {
	buf  []T
	mask uint64
	head atomic.Uint64 // next slot to read
	tail atomic.Uint64 // next slot to write
}

// NewRing returns a Ring holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}

	size := 1
	for size < capacity {
		size <<= 1
	}

	return &Ring[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends v. It returns false without blocking when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.buf)) {
		return false
	}

	r.buf[tail&r.mask] = v
	r.tail.Store(tail + 1)

	return true
}

// Pop removes the oldest item.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}

	v := r.buf[head&r.mask]
	r.buf[head&r.mask] = zero
	r.head.Store(head + 1)

	return v, true
}

// Drain pops every item currently queued and passes it to fn, oldest first.
// Items pushed while Drain runs are left for the next call.
func (r *Ring[T]) Drain(fn func(T)) int {
	n := r.Len()
	for i := 0; i < n; i++ {
		v, ok := r.Pop()
		if !ok {
			return i
		}

		fn(v)
	}

	return n
}

// Len returns the number of queued items.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
