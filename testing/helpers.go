// Package testing provides test utilities for aggz pipelines.
package testing

import (
	"testing"
	"time"

	aggz "github.com/zoobzio/aggz"
)

// CollectResultsWithTimeout collects all results from a channel until it
// closes or the timeout elapses.
func CollectResultsWithTimeout[T any](t *testing.T, ch <-chan aggz.Result[T], timeout time.Duration) []aggz.Result[T] {
	t.Helper()

	var results []aggz.Result[T]
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, result)
		case <-timer.C:
			return results
		}
	}
}

// CollectValues collects all successful values from a Result channel,
// ignoring errors.
func CollectValues[T any](t *testing.T, ch <-chan aggz.Result[T], timeout time.Duration) []T {
	t.Helper()

	results := CollectResultsWithTimeout(t, ch, timeout)
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.IsSuccess() {
			values = append(values, r.Value())
		}
	}
	return values
}

// CollectErrors collects all errors from a Result channel, ignoring
// successes.
func CollectErrors[T any](t *testing.T, ch <-chan aggz.Result[T], timeout time.Duration) []error {
	t.Helper()

	results := CollectResultsWithTimeout(t, ch, timeout)
	errs := make([]error, 0)
	for _, r := range results {
		if r.IsError() {
			errs = append(errs, r.Error())
		}
	}
	return errs
}

// SendValues returns a closed channel preloaded with values as successful
// Results, a ready-made upstream for aggregator tests.
func SendValues[T any](t *testing.T, values []T) <-chan aggz.Result[T] {
	t.Helper()

	ch := make(chan aggz.Result[T], len(values))
	for _, v := range values {
		ch <- aggz.NewSuccess(v)
	}
	close(ch)
	return ch
}

// AssertResultCount verifies the expected number of results were received.
func AssertResultCount[T any](t *testing.T, results []aggz.Result[T], expected int) {
	t.Helper()

	if len(results) != expected {
		t.Errorf("expected %d results, got %d", expected, len(results))
	}
}
