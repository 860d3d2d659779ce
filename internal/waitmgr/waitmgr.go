// Package waitmgr implements the Wait/Callback Manager: at most one
// outstanding wait at a time, registered by a handler and cleared once it
// resolves (spec §3 "Wait state", §4.6). There is no resume(token) entry
// point: the FSM polls the pending wait's predicate after each simulation
// step, and the stored Token is used only for cancellation.
package waitmgr

import (
	"fmt"

	"github.com/ehrlich-b/go-simctl/internal/interfaces"
)

// Kind discriminates the four wait states (spec §3).
type Kind int

const (
	None Kind = iota
	Time
	ValueEq
	EventFired
)

// Wait is the sum type describing the one outstanding wait, if any.
type Wait struct {
	Kind         Kind
	TargetTicks  uint64
	Name         string
	TargetNumber float64
	Token        interfaces.Token
}

// ConflictError is returned when a handler tries to register a second wait
// while one is already pending (spec §7 WaitConflict).
type ConflictError struct{}

func (ConflictError) Error() string {
	return "another callback is already registered"
}

// Manager owns the single pending Wait. While a wait is active the FSM is
// in SIM_RUNNING (spec §3 invariant); handlers must check Pending before
// registering a new one.
type Manager struct {
	current Wait
}

// New returns a manager with no pending wait.
func New() *Manager {
	return &Manager{current: Wait{Kind: None}}
}

// Pending reports whether a wait is currently registered.
func (m *Manager) Pending() bool {
	return m.current.Kind != None
}

// Current returns the pending wait (zero value if none).
func (m *Manager) Current() Wait {
	return m.current
}

// RegisterTime arms a time-based wait. Returns ConflictError if one is
// already pending.
func (m *Manager) RegisterTime(targetTicks uint64, tok interfaces.Token) error {
	if m.Pending() {
		return ConflictError{}
	}
	m.current = Wait{Kind: Time, TargetTicks: targetTicks, Token: tok}
	return nil
}

// RegisterValueEq arms a value-change wait compared against targetNumber.
func (m *Manager) RegisterValueEq(name string, targetNumber float64, tok interfaces.Token) error {
	if m.Pending() {
		return ConflictError{}
	}
	m.current = Wait{Kind: ValueEq, Name: name, TargetNumber: targetNumber, Token: tok}
	return nil
}

// RegisterEventFired arms a named-event wait; the first fire satisfies it
// regardless of value (spec §4.7 `run {cb: until_change}` on event paths).
func (m *Manager) RegisterEventFired(name string, tok interfaces.Token) error {
	if m.Pending() {
		return ConflictError{}
	}
	m.current = Wait{Kind: EventFired, Name: name, Token: tok}
	return nil
}

// Clear tears down the pending wait, called once it resolves (by trigger
// or by session teardown).
func (m *Manager) Clear() {
	m.current = Wait{Kind: None}
}

// CheckValueEq reports whether a fired value-change callback on name with
// newValue satisfies the pending ValueEq wait. Integer-to-integer and
// real-to-real comparisons are both exact equality once widened to f64
// (spec §4.7 "format-appropriate equality").
func (m *Manager) CheckValueEq(name string, newValue float64) bool {
	w := m.current
	return w.Kind == ValueEq && w.Name == name && newValue == w.TargetNumber
}

// CheckEventFired reports whether a fired event on name satisfies the
// pending EventFired wait.
func (m *Manager) CheckEventFired(name string) bool {
	w := m.current
	return w.Kind == EventFired && w.Name == name
}

// CheckTimeReached reports whether now has reached or passed the pending
// Time wait's target.
func (m *Manager) CheckTimeReached(now uint64) bool {
	w := m.current
	return w.Kind == Time && now >= w.TargetTicks
}

// String renders the wait kind for logging/error messages.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Time:
		return "time"
	case ValueEq:
		return "value_eq"
	case EventFired:
		return "event_fired"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
