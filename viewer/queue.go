package viewer

import "sync"

// Queue is an unbounded FIFO between producer goroutines and one draining
// consumer. Push never blocks beyond the lock hold, so producers outrun a
// stalled consumer instead of stalling with it; Pop blocks until an item
// arrives or the queue shuts down, and keeps delivering queued items after
// shutdown so nothing accepted is lost.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []T
	shutdown bool
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item and wakes one waiting consumer. After Shutdown the
// item is discarded, which keeps producers racing a shutdown safe.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop removes and returns the head item, blocking while the queue is empty
// and still accepting. It reports false only once the queue has shut down
// and fully drained.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Shutdown stops the queue accepting new items and wakes every waiter.
// Items already queued stay poppable. Safe to call more than once.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the number of items waiting in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
