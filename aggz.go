// Package aggz provides a pull-based windowed aggregation stage for
// streaming pipelines. Inputs are folded into an in-flight aggregate and
// harvested into output elements when any of three combinable boundaries is
// crossed: a user predicate evaluated after every input, a maximum idle gap
// between consecutive inputs, and a maximum total window duration.
//
// The stage speaks an explicit demand protocol on both sides: it keeps at
// most one input request outstanding toward its producer, and delivers
// outputs only against demand granted by its consumer, buffering harvested
// results in between. All stage events are serialized through a single
// event-loop goroutine, so the user callbacks are never invoked
// concurrently.
//
// Two API levels are exposed. Stage is the protocol-level operator,
// constructed against Upstream and Downstream implementations. Aggregator
// wraps a Stage behind channels so it composes like any other channel
// processor:
//
//	agg := aggz.NewAggregator(
//	    func(n int) []int { return []int{n} },
//	    func(w []int, n int) []int { return append(w, n) },
//	    func(w []int) bool { return len(w) >= 100 },
//	    func(w []int) []int { return w },
//	    aggz.RealClock,
//	).WithMaxGap(time.Second)
//
//	for r := range agg.Process(ctx, inputs) {
//	    if r.IsError() {
//	        log.Fatal(r.Error())
//	    }
//	    store(r.Value())
//	}
//
// Time is always taken from an injected Clock, so every timer behavior is
// testable with a fake clock.
package aggz

// Upstream is the producer side of the stage's input protocol. The stage
// calls RequestOne at most once per outstanding request; the producer
// answers each request with exactly one Stage.Push, or terminates the
// stream with Stage.CompleteUpstream or Stage.FailUpstream.
type Upstream interface {
	// RequestOne asks the producer for one more element.
	RequestOne()

	// Cancel tells the producer no further elements are wanted. A pending
	// request may go unanswered after Cancel.
	Cancel()
}

// Downstream is the consumer side of the stage's output protocol. The
// consumer grants demand with Stage.Demand; the stage answers each unit of
// demand with at most one Deliver, in harvest order.
type Downstream[Out any] interface {
	// Deliver hands the consumer one output element. Never called without
	// granted demand, and never called concurrently.
	Deliver(out Out)

	// Complete signals normal end of stream. Called exactly once, only
	// after all buffered output has been delivered.
	Complete()

	// Fail signals abnormal termination. Called at most once; buffered
	// output is discarded, not delivered.
	Fail(err error)
}
