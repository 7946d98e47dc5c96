package aggz

// outputQueue buffers harvested outputs until downstream demand consumes
// them. Items leave only in insertion order. Owned exclusively by the
// stage's event loop, so it needs no locking.
type outputQueue[T any] struct {
	items []T
}

func (q *outputQueue[T]) push(v T) {
	q.items = append(q.items, v)
}

// pop removes the oldest item, reporting false when the queue is empty.
func (q *outputQueue[T]) pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

func (q *outputQueue[T]) len() int {
	return len(q.items)
}

// clear discards all buffered items, used on failure and cancellation.
func (q *outputQueue[T]) clear() {
	q.items = nil
}
