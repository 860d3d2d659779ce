// Package clock implements the Clock Engine: programmable square-wave
// oscillators that integrate with Embedding B's event-advance loop.
package clock

import "fmt"

// Clock is one registered oscillator (spec §3 "Clock").
type Clock struct {
	Name          string
	DataRef       int64 // opaque handle id, owned by the registry/adapter
	PeriodTicks   uint64
	Duty          float64
	PeriodHigh    uint64
	PeriodLow     uint64
	NextEventTime uint64
	PrevEventTime uint64
	CycleCount    uint64
	Enabled       bool
	Value         int // 0 or 1
}

// Engine owns the set of registered clocks for the process lifetime
// (spec §3 "Ownership").
type Engine struct {
	clocks map[string]*Clock
}

// New returns an empty clock engine.
func New() *Engine {
	return &Engine{clocks: make(map[string]*Clock)}
}

// AddClock registers a clock, initially disabled with value 0.
func (e *Engine) AddClock(name string, dataRef int64) *Clock {
	c := &Clock{Name: name, DataRef: dataRef}
	e.clocks[name] = c
	return c
}

// Get returns a registered clock by name.
func (e *Engine) Get(name string) (*Clock, bool) {
	c, ok := e.clocks[name]
	return c, ok
}

// SetPeriod requires period>0 and duty in (0,1); period_high=floor(duty*period),
// period_low=period-period_high, and both must be >=1 (spec §4.5).
func (c *Clock) SetPeriod(periodTicks uint64, duty float64) error {
	if periodTicks == 0 {
		return fmt.Errorf("clock %q: period must be > 0", c.Name)
	}
	if duty <= 0 || duty >= 1 {
		return fmt.Errorf("clock %q: duty must be in (0,1)", c.Name)
	}
	high := uint64(duty * float64(periodTicks))
	low := periodTicks - high
	if high < 1 || low < 1 {
		return fmt.Errorf("clock %q: period %d with duty %v yields a zero-width phase", c.Name, periodTicks, duty)
	}
	c.PeriodTicks = periodTicks
	c.Duty = duty
	c.PeriodHigh = high
	c.PeriodLow = low
	return nil
}

// Enable arms the clock: next-event is t_now + period_low, cycle counter
// resets to 0. A no-op if already enabled.
func (c *Clock) Enable(tNow uint64) {
	if c.Enabled {
		return
	}
	c.Enabled = true
	c.Value = 0
	c.CycleCount = 0
	c.NextEventTime = tNow + c.PeriodLow
	c.PrevEventTime = tNow
}

// Disable clears the enabled flag but leaves other fields untouched.
func (c *Clock) Disable() {
	c.Enabled = false
}

// Eval toggles the clock when t == next_event_time; a no-op otherwise.
// Transitioning 0->1 advances next_event_time by period_high; 1->0 advances
// by period_low and increments the cycle counter (spec §4.5).
func (c *Clock) Eval(t uint64) {
	if !c.Enabled || t != c.NextEventTime {
		return
	}
	c.PrevEventTime = t
	if c.Value == 0 {
		c.Value = 1
		c.NextEventTime += c.PeriodHigh
	} else {
		c.Value = 0
		c.NextEventTime += c.PeriodLow
		c.CycleCount++
	}
}

// HasNextEvent reports whether any clock is enabled.
func (e *Engine) HasNextEvent() bool {
	for _, c := range e.clocks {
		if c.Enabled {
			return true
		}
	}
	return false
}

// NextEventTime returns the minimum next_event_time across enabled clocks.
// The second return is false if no clock is enabled.
func (e *Engine) NextEventTime() (uint64, bool) {
	var min uint64
	found := false
	for _, c := range e.clocks {
		if !c.Enabled {
			continue
		}
		if !found || c.NextEventTime < min {
			min = c.NextEventTime
			found = true
		}
	}
	return min, found
}

// Eval evaluates every clock at t. All clocks due at t toggle before the
// caller re-evaluates the model (spec §4.5: "all clocks with
// next_event_time == t toggle before the model is re-evaluated").
func (e *Engine) Eval(t uint64) {
	for _, c := range e.clocks {
		c.Eval(t)
	}
}

// All returns every registered clock, for callers (the FSM's main loop)
// that need to mirror toggled values back into the adapter after Eval.
func (e *Engine) All() []*Clock {
	out := make([]*Clock, 0, len(e.clocks))
	for _, c := range e.clocks {
		out = append(out, c)
	}
	return out
}
