package aggz

// Result carries either a successful stream element or a stage failure on a
// single channel, so pipelines need no side channel for errors. The zero
// Result is a success holding the zero value.
type Result[T any] struct {
	value T
	err   *StageError
}

// NewSuccess creates a Result containing a successful value.
func NewSuccess[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// NewError creates a Result containing a stage failure.
func NewError[T any](err error, stage string) Result[T] {
	return Result[T]{err: NewStageError(err, stage)}
}

// IsError returns true if this Result contains a failure.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// IsSuccess returns true if this Result contains a value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the successful value. It panics on a failed Result; check
// IsSuccess first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("called Value() on a Result containing an error")
	}
	return r.value
}

// ValueOr returns the successful value, or fallback on a failed Result.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Error returns the StageError, or nil for a successful Result.
func (r Result[T]) Error() *StageError {
	return r.err
}
