package aggz

import "sync"

// mailbox is the stage's unbounded event queue. Producers append from any
// goroutine; only the event loop drains, after each wake signal. The
// buffered wake channel never drops a wakeup: an event is either drained in
// the current pass or leaves a signal pending.
type mailbox[T any] struct {
	mu    sync.Mutex
	items []T
	wake  chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{wake: make(chan struct{}, 1)}
}

// put appends an event and wakes the event loop.
func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest event, reporting false when the mailbox is empty.
func (m *mailbox[T]) next() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]
	if len(m.items) == 0 {
		m.items = nil
	}
	return v, true
}

// signal is the channel the event loop sleeps on.
func (m *mailbox[T]) signal() <-chan struct{} {
	return m.wake
}
