package aggz

import "time"

type (
	// SeedFunc creates the initial aggregate from the first input of a
	// window.
	SeedFunc[In, Agg any] func(In) Agg

	// AggregateFunc folds one more input into the running aggregate and
	// returns the updated aggregate.
	AggregateFunc[Agg, In any] func(Agg, In) Agg

	// EmitReadyFunc reports whether the aggregate is ready to harvest. It
	// is consulted after every folded input.
	EmitReadyFunc[Agg any] func(Agg) bool

	// HarvestFunc converts a finished aggregate into an output element. It
	// runs once per window, off the hot aggregation path, so slower side
	// effects (final encoding, closing a resource) belong here rather than
	// in AggregateFunc.
	HarvestFunc[Agg, Out any] func(Agg) Out
)

// Config describes one windowed aggregator stage. The four callbacks are
// mandatory; the two deadlines are disabled when zero. A window is
// harvested as soon as EmitReady reports true, the idle gap between inputs
// reaches MaxGap, or the window's total lifetime reaches MaxDuration,
// whichever happens first.
type Config[In, Agg, Out any] struct {
	// Seed builds the aggregate for a new window.
	Seed SeedFunc[In, Agg]

	// Aggregate folds each subsequent input into the window.
	Aggregate AggregateFunc[Agg, In]

	// EmitReady decides whether the window is complete after each input.
	EmitReady EmitReadyFunc[Agg]

	// Harvest converts the window into its output element.
	Harvest HarvestFunc[Agg, Out]

	// MaxGap is the longest idle time allowed between consecutive inputs of
	// one window before it is force harvested. The gap window restarts with
	// every input. Zero disables the gap deadline.
	MaxGap time.Duration

	// MaxDuration caps the total lifetime of one window, measured from its
	// first input, regardless of activity. Zero disables the duration
	// deadline. When both deadlines are set, MaxDuration must be at least
	// MaxGap.
	MaxDuration time.Duration
}

func (c Config[In, Agg, Out]) validate() error {
	switch {
	case c.Seed == nil:
		return &ConfigError{Field: "Seed", Reason: "is required"}
	case c.Aggregate == nil:
		return &ConfigError{Field: "Aggregate", Reason: "is required"}
	case c.EmitReady == nil:
		return &ConfigError{Field: "EmitReady", Reason: "is required"}
	case c.Harvest == nil:
		return &ConfigError{Field: "Harvest", Reason: "is required"}
	case c.MaxGap < 0:
		return &ConfigError{Field: "MaxGap", Reason: "must not be negative"}
	case c.MaxDuration < 0:
		return &ConfigError{Field: "MaxDuration", Reason: "must not be negative"}
	case c.MaxGap > 0 && c.MaxDuration > 0 && c.MaxDuration < c.MaxGap:
		return &ConfigError{Field: "MaxDuration", Reason: "must be at least MaxGap"}
	}
	return nil
}
