package aggz

import (
	"sync"
	"testing"
	"time"
)

func TestMailbox_FIFO(t *testing.T) {
	m := newMailbox[int]()

	for i := 1; i <= 3; i++ {
		m.put(i)
	}
	for want := 1; want <= 3; want++ {
		got, ok := m.next()
		if !ok {
			t.Fatalf("expected item %d, mailbox empty", want)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if _, ok := m.next(); ok {
		t.Error("expected empty mailbox")
	}
}

func TestMailbox_SignalCoalesces(t *testing.T) {
	m := newMailbox[int]()

	m.put(1)
	m.put(2)
	m.put(3)

	// A burst of puts leaves at most one pending wakeup, but draining after
	// it yields every item.
	<-m.signal()
	count := 0
	for {
		if _, ok := m.next(); !ok {
			break
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected to drain 3 items, got %d", count)
	}

	select {
	case <-m.signal():
		// A second coalesced wakeup is allowed; it must find nothing.
		if _, ok := m.next(); ok {
			t.Error("expected drained mailbox")
		}
	default:
	}
}

func TestMailbox_NoLostWakeups(t *testing.T) {
	m := newMailbox[int]()
	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m.put(i)
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	drained := 0
	deadline := time.After(5 * time.Second)
	for drained < producers*perProducer {
		select {
		case <-m.signal():
			for {
				if _, ok := m.next(); !ok {
					break
				}
				drained++
			}
		case <-deadline:
			t.Fatalf("timed out, drained %d of %d", drained, producers*perProducer)
		}
	}
	<-done
}
