package queue

import (
	"sync"
)

// Bounded is a thread-safe FIFO queue with a fixed capacity. Pushing to
// a full queue evicts the oldest item, so a slow reader always sees the
// most recent data instead of a backlog.
type Bounded[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
}

// NewBounded creates an empty queue holding at most capacity items.
// Capacities below 1 are treated as 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an item, evicting the oldest when the queue is full.
func (q *Bounded[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, item)
}

// Pop removes and returns the oldest item. The second return is false
// when the queue is empty.
func (q *Bounded[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Empty returns true if the queue has no items.
func (q *Bounded[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear removes all items from the queue.
func (q *Bounded[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}
