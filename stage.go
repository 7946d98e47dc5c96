package aggz

import (
	"errors"
	"math"
	"time"

	"gopkg.in/tomb.v2"
)

// harvestReason says why a harvest check runs. The three reasons differ in
// which boundary conditions they may trigger and whether the gap deadline
// is re-armed when the window stays open.
type harvestReason uint8

const (
	// reasonAfterUpdate follows every input folded into the window.
	reasonAfterUpdate harvestReason = iota

	// reasonTimer follows a gap or duration deadline firing. Which of the
	// two fired is irrelevant: both conditions are re-derived from the
	// clock inside the check.
	reasonTimer

	// reasonFlush follows upstream completion and harvests unconditionally.
	reasonFlush
)

type eventKind uint8

const (
	eventInput eventKind = iota
	eventUpstreamComplete
	eventUpstreamFailure
	eventDemand
	eventCancel
)

// event is one unit of work for the stage's event loop.
type event[In any] struct {
	kind eventKind
	in   In
	err  error
	n    int
}

// errStageDone is the loop-internal signal for clean termination.
var errStageDone = errors.New("aggz: stage done")

// Stage is the windowed aggregator at the demand-protocol level. It folds
// inputs pulled one at a time from an Upstream into windows, harvests them
// on the configured boundaries, and delivers outputs to a Downstream
// against granted demand, oldest first.
//
// All events - input delivery, demand, timer fires, completion, failure,
// cancellation - are funneled through one mailbox and handled by a single
// goroutine, so the Config callbacks are never invoked concurrently and the
// stage state needs no locking.
//
// The methods Push, CompleteUpstream, FailUpstream, Demand and
// CancelDownstream are safe to call from any goroutine.
type Stage[In, Agg, Out any] struct {
	cfg   Config[In, Agg, Out]
	up    Upstream
	down  Downstream[Out]
	clock Clock

	life tomb.Tomb
	mbox *mailbox[event[In]]

	// Everything below is owned by the event loop.
	acc           Agg
	accumulating  bool
	startedAt     time.Time
	lastUpdatedAt time.Time

	timers *timerControl
	queue  outputQueue[Out]

	demand         int64
	requestPending bool
	upstreamDone   bool
}

// NewStage validates cfg and builds a stage wired to the given
// collaborators. A nil clock defaults to RealClock. The stage does nothing
// until Start is called.
func NewStage[In, Agg, Out any](
	cfg Config[In, Agg, Out],
	up Upstream,
	down Downstream[Out],
	clock Clock,
) (*Stage[In, Agg, Out], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if up == nil {
		return nil, &ConfigError{Field: "upstream", Reason: "is required"}
	}
	if down == nil {
		return nil, &ConfigError{Field: "downstream", Reason: "is required"}
	}
	if clock == nil {
		clock = RealClock
	}
	return &Stage[In, Agg, Out]{
		cfg:    cfg,
		up:     up,
		down:   down,
		clock:  clock,
		mbox:   newMailbox[event[In]](),
		timers: newTimerControl(clock),
	}, nil
}

// Start launches the event loop and eagerly requests the first input,
// independent of downstream demand. It must be called exactly once.
func (s *Stage[In, Agg, Out]) Start() {
	s.life.Go(s.run)
}

// Push delivers the input answering the stage's outstanding request.
func (s *Stage[In, Agg, Out]) Push(in In) {
	s.mbox.put(event[In]{kind: eventInput, in: in})
}

// CompleteUpstream signals that the producer is done. The in-flight window
// is flushed and buffered output is delivered as demand allows before the
// stage completes.
func (s *Stage[In, Agg, Out]) CompleteUpstream() {
	s.mbox.put(event[In]{kind: eventUpstreamComplete})
}

// FailUpstream signals a producer failure. The in-flight window and all
// buffered output are discarded and err is propagated downstream.
func (s *Stage[In, Agg, Out]) FailUpstream(err error) {
	s.mbox.put(event[In]{kind: eventUpstreamFailure, err: err})
}

// Demand grants n more units of downstream demand. Demand accumulates;
// each unit is answered with at most one delivery. Non-positive n is
// ignored.
func (s *Stage[In, Agg, Out]) Demand(n int) {
	s.mbox.put(event[In]{kind: eventDemand, n: n})
}

// CancelDownstream signals that the consumer wants no further output. The
// stage stops requesting input and terminates, discarding the in-flight
// window and buffered output. Cancellation is not an error.
func (s *Stage[In, Agg, Out]) CancelDownstream() {
	s.mbox.put(event[In]{kind: eventCancel})
}

// Wait blocks until the stage terminates. It returns nil after normal
// completion or downstream cancellation, otherwise the upstream or
// callback error that failed the stage.
func (s *Stage[In, Agg, Out]) Wait() error {
	return s.life.Wait()
}

func (s *Stage[In, Agg, Out]) run() error {
	s.up.RequestOne()
	s.requestPending = true

	for {
		select {
		case <-s.mbox.signal():
			for {
				ev, ok := s.mbox.next()
				if !ok {
					break
				}
				if err := s.dispatch(ev); err != nil {
					if errors.Is(err, errStageDone) {
						return nil
					}
					return err
				}
			}

		case <-s.timers.gapC():
			if err := s.harvestCheck(reasonTimer); err != nil {
				return err
			}

		case <-s.timers.durationC():
			if err := s.harvestCheck(reasonTimer); err != nil {
				return err
			}
		}
	}
}

func (s *Stage[In, Agg, Out]) dispatch(ev event[In]) error {
	switch ev.kind {
	case eventInput:
		return s.onInput(ev.in)
	case eventUpstreamComplete:
		return s.onUpstreamComplete()
	case eventUpstreamFailure:
		return s.onUpstreamFailure(ev.err)
	case eventDemand:
		return s.onDemand(ev.n)
	case eventCancel:
		return s.onCancel()
	}
	return nil
}

func (s *Stage[In, Agg, Out]) onInput(in In) error {
	s.requestPending = false
	now := s.clock.Now()

	if !s.accumulating {
		agg, err := protect("seed", func() Agg { return s.cfg.Seed(in) })
		if err != nil {
			return s.failStage(err)
		}
		s.acc = agg
		s.accumulating = true
		s.startedAt = now
		s.lastUpdatedAt = now
		if s.cfg.MaxDuration > 0 {
			s.timers.armDuration(s.cfg.MaxDuration)
		}
	} else {
		agg, err := protect("aggregate", func() Agg { return s.cfg.Aggregate(s.acc, in) })
		if err != nil {
			return s.failStage(err)
		}
		s.acc = agg
		s.lastUpdatedAt = now
	}

	if err := s.harvestCheck(reasonAfterUpdate); err != nil {
		return err
	}

	// Prefetch the next input only while downstream demand is unsatisfied;
	// otherwise the next request waits for demand, propagating backpressure
	// upstream. Evaluated here, at input arrival, never retroactively.
	s.maybeRequest()
	return nil
}

// harvestCheck decides whether the in-flight window ends now. A no-op while
// Empty, which also covers a deadline fire racing a harvest that already
// cleared the window.
func (s *Stage[In, Agg, Out]) harvestCheck(reason harvestReason) error {
	if !s.accumulating {
		return nil
	}
	now := s.clock.Now()

	emit := reason == reasonFlush
	if !emit {
		ready, err := protect("emitReady", func() bool { return s.cfg.EmitReady(s.acc) })
		if err != nil {
			return s.failStage(err)
		}
		emit = ready
	}
	if !emit && reason == reasonTimer && s.cfg.MaxGap > 0 &&
		now.Sub(s.lastUpdatedAt) >= s.cfg.MaxGap {
		emit = true
	}
	// The duration ceiling holds under every reason, so a window kept alive
	// by steady inputs is still force-flushed at its deadline.
	if !emit && s.cfg.MaxDuration > 0 && now.Sub(s.startedAt) >= s.cfg.MaxDuration {
		emit = true
	}

	if !emit {
		if reason != reasonFlush && s.cfg.MaxGap > 0 {
			s.timers.armGap(s.cfg.MaxGap)
		}
		return nil
	}

	out, err := protect("harvest", func() Out { return s.cfg.Harvest(s.acc) })
	if err != nil {
		return s.failStage(err)
	}
	s.clearWindow()
	s.queue.push(out)
	s.deliverQueued()
	return nil
}

func (s *Stage[In, Agg, Out]) onDemand(n int) error {
	if n <= 0 {
		return nil
	}
	s.demand += int64(n)
	if s.demand < 0 {
		s.demand = math.MaxInt64
	}

	s.deliverQueued()

	if s.upstreamDone {
		if s.queue.len() == 0 {
			s.down.Complete()
			return errStageDone
		}
		return nil
	}
	if s.queue.len() == 0 {
		s.maybeRequest()
	}
	return nil
}

func (s *Stage[In, Agg, Out]) onUpstreamComplete() error {
	s.upstreamDone = true
	s.requestPending = false

	if err := s.harvestCheck(reasonFlush); err != nil {
		return err
	}
	s.timers.disarmAll()

	if s.queue.len() == 0 {
		s.down.Complete()
		return errStageDone
	}
	// Remaining output drains against future demand before completion.
	return nil
}

func (s *Stage[In, Agg, Out]) onUpstreamFailure(err error) error {
	s.discard()
	s.down.Fail(err)
	return err
}

func (s *Stage[In, Agg, Out]) onCancel() error {
	s.discard()
	s.up.Cancel()
	return errStageDone
}

// failStage handles a callback panic: discard everything, fail downstream,
// stop upstream.
func (s *Stage[In, Agg, Out]) failStage(err error) error {
	s.discard()
	s.down.Fail(err)
	s.up.Cancel()
	return err
}

// deliverQueued answers outstanding demand from the queue, oldest first.
func (s *Stage[In, Agg, Out]) deliverQueued() {
	for s.demand > 0 {
		out, ok := s.queue.pop()
		if !ok {
			return
		}
		s.down.Deliver(out)
		s.demand--
	}
}

// maybeRequest issues the next upstream request, keeping at most one
// outstanding and only while unsatisfied demand exists.
func (s *Stage[In, Agg, Out]) maybeRequest() {
	if s.upstreamDone || s.requestPending || s.demand <= 0 {
		return
	}
	s.up.RequestOne()
	s.requestPending = true
}

func (s *Stage[In, Agg, Out]) clearWindow() {
	var zero Agg
	s.acc = zero
	s.accumulating = false
	s.timers.disarmAll()
}

func (s *Stage[In, Agg, Out]) discard() {
	s.clearWindow()
	s.queue.clear()
}

// protect invokes a user callback, converting a panic into a CallbackError.
func protect[T any](name string, fn func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{Callback: name, Value: r}
		}
	}()
	return fn(), nil
}
