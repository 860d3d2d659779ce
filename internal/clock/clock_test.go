package clock

import "testing"

// TestClockInvariants checks the exact sequence spec.md §8 "Clock
// invariants" requires: period=10, duty=0.5 -> high=5, low=5, starting low
// at t=0, toggling at 5,10,15,20,... with the cycle counter incrementing on
// each 1->0 transition.
func TestClockInvariants(t *testing.T) {
	e := New()
	c := e.AddClock("clk", 1)
	if err := c.SetPeriod(10, 0.5); err != nil {
		t.Fatal(err)
	}
	c.Enable(0)

	type step struct {
		t          uint64
		wantValue  int
		wantCycles uint64
	}
	steps := []step{
		{5, 1, 0},
		{10, 0, 1},
		{15, 1, 1},
		{20, 0, 2},
		{25, 1, 2},
	}
	for _, s := range steps {
		c.Eval(s.t)
		if c.Value != s.wantValue {
			t.Fatalf("at t=%d: value=%d, want %d", s.t, c.Value, s.wantValue)
		}
		if c.CycleCount != s.wantCycles {
			t.Fatalf("at t=%d: cycles=%d, want %d", s.t, c.CycleCount, s.wantCycles)
		}
	}
}

func TestClockEvalNoOpOffSchedule(t *testing.T) {
	e := New()
	c := e.AddClock("clk", 1)
	_ = c.SetPeriod(10, 0.5)
	c.Enable(0)
	c.Eval(3) // not yet due
	if c.Value != 0 || c.CycleCount != 0 {
		t.Fatalf("unexpected toggle before due time")
	}
}

func TestSetPeriodRejectsZeroWidthPhase(t *testing.T) {
	e := New()
	c := e.AddClock("clk", 1)
	if err := c.SetPeriod(1, 0.5); err == nil {
		t.Fatal("expected error for period too small to yield two nonzero phases")
	}
}

func TestEnableIsIdempotent(t *testing.T) {
	e := New()
	c := e.AddClock("clk", 1)
	_ = c.SetPeriod(10, 0.5)
	c.Enable(0)
	c.Eval(5) // value now 1, next_event_time=10
	c.Enable(100) // no-op: already enabled
	if c.NextEventTime != 10 {
		t.Fatalf("Enable should be a no-op once enabled, got next_event_time=%d", c.NextEventTime)
	}
}

func TestEngineNextEventTimeAcrossClocks(t *testing.T) {
	e := New()
	a := e.AddClock("a", 1)
	b := e.AddClock("b", 2)
	_ = a.SetPeriod(10, 0.5)
	_ = b.SetPeriod(4, 0.5)
	a.Enable(0)
	b.Enable(0)

	if !e.HasNextEvent() {
		t.Fatal("expected HasNextEvent true")
	}
	next, ok := e.NextEventTime()
	if !ok || next != 2 { // b: period_low = 2
		t.Fatalf("NextEventTime() = %d, %v; want 2, true", next, ok)
	}
}
