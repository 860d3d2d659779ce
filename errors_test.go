package simctl

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("dispatch", ErrCodeCommandError, "unknown command")
	if err.Op != "dispatch" {
		t.Errorf("Op = %q, want dispatch", err.Op)
	}
	if err.Code != ErrCodeCommandError {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeCommandError)
	}
	want := "simctl: dispatch: unknown command"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapErrorPreservesInner(t *testing.T) {
	inner := fmt.Errorf("connection reset")
	err := WrapError("read", ErrCodeIoError, inner)
	if !errors.Is(err, inner) {
		t.Error("expected WrapError result to wrap the inner error")
	}
	if err.Code != ErrCodeIoError {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeIoError)
	}
}

func TestWrapErrorNilIsNil(t *testing.T) {
	if WrapError("read", ErrCodeIoError, nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("accept", ErrCodeFatalInit, "accept timed out")
	if !IsCode(err, ErrCodeFatalInit) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(err, ErrCodeWaitConflict) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, ErrCodeFatalInit) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewError("run", ErrCodeWaitConflict, "another callback is already registered")
	b := &Error{Code: ErrCodeWaitConflict}
	if !errors.Is(a, b) {
		t.Error("errors with the same Code should satisfy errors.Is")
	}
}
