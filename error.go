package aggz

import (
	"fmt"
	"time"
)

// StageError is the failure surfaced on an aggregator's output. It records
// which stage failed and when, wrapping the underlying cause.
type StageError struct {
	// Err is the underlying cause.
	Err error

	// Stage identifies the stage that failed.
	Stage string

	// Timestamp records when the failure surfaced.
	Timestamp time.Time
}

// NewStageError wraps err as a StageError with the current timestamp.
func NewStageError(err error, stage string) *StageError {
	return &StageError{
		Err:       err,
		Stage:     stage,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("aggz: stage %q failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid stage configuration. It is returned
// synchronously at construction, before any stream activity begins.
type ConfigError struct {
	// Field names the offending configuration field.
	Field string

	// Reason describes the constraint that was violated.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("aggz: invalid configuration: %s %s", e.Field, e.Reason)
}

// CallbackError reports a panic raised by one of the four user callbacks.
// It is fatal to the stage: buffered output is discarded and the failure is
// propagated downstream.
type CallbackError struct {
	// Callback names the callback that panicked: "seed", "aggregate",
	// "emitReady" or "harvest".
	Callback string

	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return fmt.Sprintf("aggz: %s callback panicked: %v", e.Callback, e.Value)
}

// Unwrap returns the panic value when it was an error, nil otherwise.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
