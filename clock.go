package aggz

import "github.com/zoobzio/clockz"

// Clock supplies the stage's notion of time. Tests substitute a fake clock
// to drive the gap and duration deadlines deterministically.
type Clock = clockz.Clock

// Timer is a single-fire, cancellable timer obtained from a Clock.
type Timer = clockz.Timer

// RealClock is the default Clock backed by the standard time package.
var RealClock Clock = clockz.RealClock
