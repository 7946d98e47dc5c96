package aggz

import (
	"errors"
	"strings"
	"testing"
)

func TestStageError_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStageError(cause, "rollup")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "rollup") {
		t.Errorf("expected stage name in message, got %q", err.Error())
	}
	if err.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "MaxDuration", Reason: "must be at least MaxGap"}
	msg := err.Error()
	if !strings.Contains(msg, "MaxDuration") || !strings.Contains(msg, "must be at least MaxGap") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestCallbackError_UnwrapsErrorPanics(t *testing.T) {
	cause := errors.New("nil map write")
	err := &CallbackError{Callback: "aggregate", Value: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the panic cause")
	}
	if !strings.Contains(err.Error(), "aggregate") {
		t.Errorf("expected callback name in message, got %q", err.Error())
	}
}

func TestCallbackError_NonErrorPanicValue(t *testing.T) {
	err := &CallbackError{Callback: "seed", Value: "boom"}

	if err.Unwrap() != nil {
		t.Error("expected no unwrap target for a string panic value")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected panic value in message, got %q", err.Error())
	}
}
