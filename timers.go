package aggz

import "time"

// timerControl owns the stage's two deadlines: the idle-gap timer, re-armed
// after every harvest check that keeps the window open, and the duration
// timer, armed exactly once per window at its start. Arming allocates a
// fresh timer; once a clockz fake timer has fired it is no longer tracked
// by the clock, so a Reset timer would never fire again. A disarmed
// deadline exposes a nil channel so the event loop's select ignores it.
type timerControl struct {
	clock Clock

	gap      Timer
	duration Timer

	gapArmed      bool
	durationArmed bool
}

func newTimerControl(clock Clock) *timerControl {
	return &timerControl{clock: clock}
}

// armGap starts or restarts the idle-gap deadline d from now.
func (t *timerControl) armGap(d time.Duration) {
	if t.gap != nil {
		stopAndDrain(t.gap)
	}
	t.gap = t.clock.NewTimer(d)
	t.gapArmed = true
}

// armDuration starts the window-lifetime deadline d from now. The stage
// arms it only on the Empty to Accumulating transition, so it fires at most
// once per window.
func (t *timerControl) armDuration(d time.Duration) {
	if t.duration != nil {
		stopAndDrain(t.duration)
	}
	t.duration = t.clock.NewTimer(d)
	t.durationArmed = true
}

// disarmAll cancels both deadlines, clearing any fire already delivered so
// a stale tick cannot leak into the next window.
func (t *timerControl) disarmAll() {
	if t.gap != nil {
		stopAndDrain(t.gap)
		t.gap = nil
	}
	if t.duration != nil {
		stopAndDrain(t.duration)
		t.duration = nil
	}
	t.gapArmed = false
	t.durationArmed = false
}

// gapC returns the gap deadline's fire channel, nil while disarmed.
func (t *timerControl) gapC() <-chan time.Time {
	if !t.gapArmed {
		return nil
	}
	return t.gap.C()
}

// durationC returns the duration deadline's fire channel, nil while
// disarmed.
func (t *timerControl) durationC() <-chan time.Time {
	if !t.durationArmed {
		return nil
	}
	return t.duration.C()
}

// stopAndDrain stops a timer and discards a tick that already landed in its
// channel, so a later Reset cannot observe a stale fire.
func stopAndDrain(t Timer) {
	if !t.Stop() {
		select {
		case <-t.C():
		default:
		}
	}
}
