// SPDX-License-Identifier: EPL-2.0

package command

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// DefaultCapacity is the queue size used by the engine when none is
// configured.
const DefaultCapacity = 256

// Queue is a bounded single-producer single-consumer ring of T.
//
// One goroutine may call Push and one (other) goroutine may call Pop
// concurrently; neither ever blocks or allocates. head and tail are
// monotonic counters masked into the slot array, so every slot is usable:
// a queue of capacity 256 holds 256 items.
//
// The producer publishes a slot by storing tail after writing it; the
// consumer releases a slot by storing head after reading it. sync/atomic
// gives those stores release semantics and the matching loads acquire
// semantics.
type Queue[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Uint64 // next slot to read, written by the consumer
	_    cpu.CacheLinePad
	tail atomic.Uint64 // next slot to write, written by the producer
	_    cpu.CacheLinePad

	mask  uint64
	slots []T
}

// NewQueue creates a queue holding exactly capacity items. capacity must be
// a power of two.
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacityNotPowerOfTwo, capacity)
	}

	return &Queue[T]{
		mask:  uint64(capacity - 1),
		slots: make([]T, capacity),
	}, nil
}

// Push copies *v into the queue. It reports false when the queue is full.
// Producer side only.
func (q *Queue[T]) Push(v *T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() > q.mask {
		return false
	}

	q.slots[tail&q.mask] = *v
	q.tail.Store(tail + 1)

	return true
}

// Pop copies the oldest item into *v. It reports false when the queue is
// empty. Consumer side only.
func (q *Queue[T]) Pop(v *T) bool {
	head := q.head.Load()
	if head == q.tail.Load() {
		return false
	}

	*v = q.slots[head&q.mask]
	q.head.Store(head + 1)

	return true
}

// Len is the number of queued items. The value is a snapshot and may be
// stale by the time the caller uses it.
func (q *Queue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail < head {
		return 0
	}

	return int(tail - head)
}

// Cap is the number of slots.
func (q *Queue[T]) Cap() int { return len(q.slots) }

// Empty reports whether Len is zero.
func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

// Clear drops every queued item. Consumer side only.
func (q *Queue[T]) Clear() {
	q.head.Store(q.tail.Load())
}
