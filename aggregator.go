package aggz

import (
	"context"
	"sync"
	"time"
)

// Aggregator wraps a Stage behind channels so it composes like any other
// channel processor. Each element read from the input channel answers
// exactly one stage request, and the consumer's pace on the output channel
// gates demand, so channel backpressure propagates through the stage to the
// source.
//
// Boundary mapping: an error Result on the input is an upstream failure
// (fatal, buffered output discarded), closing the input is upstream
// completion (flush, then drain), and canceling ctx is downstream
// cancellation (immediate stop, output discarded).
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Aggregator[In, Agg, Out any] struct {
	cfg   Config[In, Agg, Out]
	name  string
	clock Clock
}

// NewAggregator creates a windowed aggregation processor from the four
// window callbacks. Without further configuration the only boundary is the
// emitReady predicate; add time boundaries with the fluent options.
//
// Example:
//
//	// Roll up at 100 events, at 2s idle, or at 30s of window age,
//	// whichever comes first.
//	agg := aggz.NewAggregator(seed, fold, full, finish, aggz.RealClock).
//		WithMaxGap(2 * time.Second).
//		WithMaxDuration(30 * time.Second)
//
//	rollups := agg.Process(ctx, events)
//
// Parameters:
//   - seed: builds the aggregate from a window's first input
//   - aggregate: folds each subsequent input into the aggregate
//   - emitReady: reports whether the aggregate is complete
//   - harvest: converts the aggregate into the output element
//   - clock: Clock interface for time operations
//
// Returns a new Aggregator with fluent configuration methods.
func NewAggregator[In, Agg, Out any](
	seed SeedFunc[In, Agg],
	aggregate AggregateFunc[Agg, In],
	emitReady EmitReadyFunc[Agg],
	harvest HarvestFunc[Agg, Out],
	clock Clock,
) *Aggregator[In, Agg, Out] {
	return &Aggregator[In, Agg, Out]{
		cfg: Config[In, Agg, Out]{
			Seed:      seed,
			Aggregate: aggregate,
			EmitReady: emitReady,
			Harvest:   harvest,
		},
		name:  "aggregator",
		clock: clock,
	}
}

// WithMaxGap harvests the window after d of input inactivity. The gap
// window restarts with every input.
func (a *Aggregator[In, Agg, Out]) WithMaxGap(d time.Duration) *Aggregator[In, Agg, Out] {
	a.cfg.MaxGap = d
	return a
}

// WithMaxDuration harvests the window once it has been open for d,
// regardless of activity. Must be at least MaxGap when both are set.
func (a *Aggregator[In, Agg, Out]) WithMaxDuration(d time.Duration) *Aggregator[In, Agg, Out] {
	a.cfg.MaxDuration = d
	return a
}

// WithName sets a custom name for this processor instance.
// If not set, defaults to "aggregator".
func (a *Aggregator[In, Agg, Out]) WithName(name string) *Aggregator[In, Agg, Out] {
	a.name = name
	return a
}

// Name returns the processor name for debugging.
func (a *Aggregator[In, Agg, Out]) Name() string {
	return a.name
}

// Process runs the stage between the input channel and the returned output
// channel. An invalid configuration surfaces as a single error Result
// before anything is read from the input.
func (a *Aggregator[In, Agg, Out]) Process(ctx context.Context, in <-chan Result[In]) <-chan Result[Out] {
	out := make(chan Result[Out])

	up := newChanUpstream(in)
	down := newChanDownstream[Out]()

	stage, err := NewStage(a.cfg, up, down, a.clock)
	if err != nil {
		go func() {
			defer close(out)
			select {
			case out <- NewError[Out](err, a.name):
			case <-ctx.Done():
			}
		}()
		return out
	}

	stage.Start()
	go up.pump(ctx, stage)
	go a.pump(ctx, stage, down, out)
	return out
}

// pump is the downstream side of the facade: it grants one unit of demand
// at a time and forwards each delivery to the output channel, so the next
// unit is not granted until the consumer accepts the previous output.
func (a *Aggregator[In, Agg, Out]) pump(
	ctx context.Context,
	stage *Stage[In, Agg, Out],
	down *chanDownstream[Out],
	out chan<- Result[Out],
) {
	defer close(out)

	for {
		stage.Demand(1)

		select {
		case v := <-down.deliveries:
			select {
			case out <- NewSuccess(v):
			case <-ctx.Done():
				stage.CancelDownstream()
				return
			}

		case <-down.completed:
			// A delivery answering this demand unit can land right before
			// completion; it is already buffered, so drain it first.
			for {
				select {
				case v := <-down.deliveries:
					select {
					case out <- NewSuccess(v):
					case <-ctx.Done():
						return
					}
				default:
					return
				}
			}

		case <-down.failed:
			select {
			case out <- NewError[Out](down.err, a.name):
			case <-ctx.Done():
			}
			return

		case <-ctx.Done():
			stage.CancelDownstream()
			return
		}
	}
}

// inlet is the slice of Stage the upstream adapter feeds.
type inlet[In any] interface {
	Push(In)
	CompleteUpstream()
	FailUpstream(error)
}

// chanUpstream adapts a Result channel to the stage's pull protocol: one
// channel read per request.
type chanUpstream[In any] struct {
	in        <-chan Result[In]
	requests  chan struct{}
	cancelled chan struct{}
	once      sync.Once
}

func newChanUpstream[In any](in <-chan Result[In]) *chanUpstream[In] {
	return &chanUpstream[In]{
		in:        in,
		requests:  make(chan struct{}, 1),
		cancelled: make(chan struct{}),
	}
}

// RequestOne never blocks: the stage keeps at most one request
// outstanding, so the buffered signal always has room.
func (u *chanUpstream[In]) RequestOne() {
	select {
	case u.requests <- struct{}{}:
	default:
	}
}

func (u *chanUpstream[In]) Cancel() {
	u.once.Do(func() { close(u.cancelled) })
}

func (u *chanUpstream[In]) pump(ctx context.Context, s inlet[In]) {
	for {
		select {
		case <-u.cancelled:
			return
		case <-ctx.Done():
			return
		case <-u.requests:
		}

		select {
		case r, ok := <-u.in:
			if !ok {
				s.CompleteUpstream()
				return
			}
			if r.IsError() {
				s.FailUpstream(r.Error())
				return
			}
			s.Push(r.Value())
		case <-u.cancelled:
			return
		case <-ctx.Done():
			return
		}
	}
}

// chanDownstream adapts the stage's delivery protocol to the facade pump.
// Field err is written once by the event loop before failed closes and read
// only after, so the close is its publication point.
type chanDownstream[Out any] struct {
	deliveries chan Out
	completed  chan struct{}
	failed     chan struct{}
	err        error
}

func newChanDownstream[Out any]() *chanDownstream[Out] {
	return &chanDownstream[Out]{
		deliveries: make(chan Out, 1),
		completed:  make(chan struct{}),
		failed:     make(chan struct{}),
	}
}

// Deliver never blocks: the pump grants demand one unit at a time, so at
// most one delivery is ever in flight.
func (d *chanDownstream[Out]) Deliver(v Out) {
	d.deliveries <- v
}

func (d *chanDownstream[Out]) Complete() {
	close(d.completed)
}

func (d *chanDownstream[Out]) Fail(err error) {
	d.err = err
	close(d.failed)
}
