package waitmgr

import "testing"

// TestWaitExclusion covers spec.md §8 "Wait exclusion": once a wait is
// registered, a second registration attempt must fail and leave the
// pending wait intact.
func TestWaitExclusion(t *testing.T) {
	m := New()
	if err := m.RegisterTime(100, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterTime(200, 2); err == nil {
		t.Fatal("expected ConflictError on second wait registration")
	}
	if m.Current().TargetTicks != 100 {
		t.Fatalf("pending wait was overwritten: target=%d", m.Current().TargetTicks)
	}
}

func TestClearThenReregister(t *testing.T) {
	m := New()
	_ = m.RegisterTime(100, 1)
	m.Clear()
	if m.Pending() {
		t.Fatal("expected no pending wait after Clear")
	}
	if err := m.RegisterValueEq("s", 42, 2); err != nil {
		t.Fatal(err)
	}
}

func TestCheckValueEq(t *testing.T) {
	m := New()
	_ = m.RegisterValueEq("s", 42, 1)
	if !m.CheckValueEq("s", 42) {
		t.Fatal("expected match on equal value")
	}
	if m.CheckValueEq("s", 43) {
		t.Fatal("expected no match on unequal value")
	}
	if m.CheckValueEq("other", 42) {
		t.Fatal("expected no match on different name")
	}
}

func TestCheckEventFired(t *testing.T) {
	m := New()
	_ = m.RegisterEventFired("evt", 1)
	if !m.CheckEventFired("evt") {
		t.Fatal("expected event match")
	}
}

func TestCheckTimeReached(t *testing.T) {
	m := New()
	_ = m.RegisterTime(100, 1)
	if m.CheckTimeReached(99) {
		t.Fatal("expected not yet reached")
	}
	if !m.CheckTimeReached(100) {
		t.Fatal("expected reached at exact target")
	}
}
