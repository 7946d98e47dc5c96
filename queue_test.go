package aggz

import "testing"

func TestOutputQueue_FIFO(t *testing.T) {
	var q outputQueue[string]

	if _, ok := q.pop(); ok {
		t.Error("expected empty queue")
	}

	q.push("a")
	q.push("b")
	q.push("c")
	if q.len() != 3 {
		t.Errorf("expected length 3, got %d", q.len())
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.pop()
		if !ok {
			t.Fatalf("expected %q, queue empty", want)
		}
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
	if q.len() != 0 {
		t.Errorf("expected empty queue, length %d", q.len())
	}
}

func TestOutputQueue_Clear(t *testing.T) {
	var q outputQueue[int]

	q.push(1)
	q.push(2)
	q.clear()

	if q.len() != 0 {
		t.Errorf("expected empty queue after clear, length %d", q.len())
	}
	if _, ok := q.pop(); ok {
		t.Error("expected pop to fail after clear")
	}

	// The queue stays usable after a clear.
	q.push(3)
	if got, ok := q.pop(); !ok || got != 3 {
		t.Errorf("expected 3, got %d (ok=%v)", got, ok)
	}
}
