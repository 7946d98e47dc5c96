package aggz

import (
	"errors"
	"testing"
)

func TestResult_Success(t *testing.T) {
	r := NewSuccess(42)

	if !r.IsSuccess() || r.IsError() {
		t.Error("expected a successful result")
	}
	if r.Value() != 42 {
		t.Errorf("expected 42, got %d", r.Value())
	}
	if r.ValueOr(0) != 42 {
		t.Errorf("expected 42, got %d", r.ValueOr(0))
	}
	if r.Error() != nil {
		t.Errorf("expected nil error, got %v", r.Error())
	}
}

func TestResult_Error(t *testing.T) {
	cause := errors.New("boom")
	r := NewError[int](cause, "rollup")

	if r.IsSuccess() || !r.IsError() {
		t.Error("expected a failed result")
	}
	if r.ValueOr(7) != 7 {
		t.Errorf("expected fallback 7, got %d", r.ValueOr(7))
	}
	if !errors.Is(r.Error(), cause) {
		t.Errorf("expected error chain to include cause, got %v", r.Error())
	}
	if r.Error().Stage != "rollup" {
		t.Errorf("expected stage 'rollup', got %q", r.Error().Stage)
	}
}

func TestResult_ValuePanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Value() to panic on a failed result")
		}
	}()
	NewError[int](errors.New("boom"), "rollup").Value()
}
