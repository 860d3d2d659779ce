// Package simctl provides the main API for embedding the simulator-control
// middleware in a cycle-driven (Embedding B) testbench.
package simctl

import (
	"errors"
	"fmt"
)

// Error is a structured simctl error carrying the failing operation, a
// closed error Code, and any wrapped cause.
type Error struct {
	Op    string // operation that failed (e.g. "bind", "dispatch", "run")
	Code  ErrorCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("simctl: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("simctl: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode is the closed set of error kinds from spec.md §7.
type ErrorCode string

const (
	// ErrCodeIoError covers socket/read/write failures. A WAITING-state
	// occurrence returns to CONNECT; a CONNECT-state occurrence becomes
	// ERROR.
	ErrCodeIoError ErrorCode = "io_error"
	// ErrCodeFrameError covers zero header length, buffer overflow, or
	// malformed header JSON. Response: error reply, return to WAITING.
	ErrCodeFrameError ErrorCode = "frame_error"
	// ErrCodeCommandError covers missing/unknown command, malformed
	// arguments, out-of-range selectors. Response: error reply, return to
	// WAITING.
	ErrCodeCommandError ErrorCode = "command_error"
	// ErrCodeWaitConflict is a second concurrent wait request. Response:
	// error reply, stay in WAITING.
	ErrCodeWaitConflict ErrorCode = "wait_conflict"
	// ErrCodeSimulatorEnd is a callback firing after end-of-simulation.
	// Response: error reply, transition EXIT.
	ErrCodeSimulatorEnd ErrorCode = "simulator_end"
	// ErrCodeFatalInit is a socket bind/listen failure or accept timeout.
	// Response: log, transition ERROR, exit with nonzero status.
	ErrCodeFatalInit ErrorCode = "fatal_init"
)

// NewError constructs a structured Error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error under a simctl operation/code,
// preserving the original as Inner.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	if se, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: se.Code, Msg: se.Msg, Inner: se.Inner}
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
