// Package util provides small, stateless helpers shared across the control
// layer: time-unit conversion, array-range path parsing, and uuid framing.
package util

import "fmt"

// timeUnitExp10 is the closed set of time units accepted by the wire
// protocol (spec.md §6), mapped to their base-10 exponent relative to one
// second.
var timeUnitExp10 = map[string]int{
	"s":  0,
	"ms": -3,
	"us": -6,
	"ns": -9,
	"ps": -12,
	"fs": -15,
}

// TimeUnitExp10 returns the base-10 exponent for a closed-set time unit
// string, or an error if the unit isn't one of {s, ms, us, ns, ps, fs}.
func TimeUnitExp10(unit string) (int, error) {
	exp, ok := timeUnitExp10[unit]
	if !ok {
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
	return exp, nil
}

// SecondsToTicks converts a real time value expressed in the given unit to
// an integer tick count at the simulator's precision (precisionExp10, e.g.
// -9 for nanoseconds). Used by the `run` command family to turn a
// client-supplied (time, time_unit) pair into ticks.
func SecondsToTicks(value float64, unit string, precisionExp10 int16) (uint64, error) {
	exp, err := TimeUnitExp10(unit)
	if err != nil {
		return 0, err
	}
	scale := pow10(exp - int(precisionExp10))
	ticks := value * scale
	if ticks < 0 {
		return 0, fmt.Errorf("negative tick count")
	}
	return uint64(ticks + 0.5), nil
}

// TicksToSeconds converts a tick count at the given precision back to SI
// seconds, used by `get sim_time`.
func TicksToSeconds(ticks uint64, precisionExp10 int16) float64 {
	return float64(ticks) * pow10(int(precisionExp10))
}

// PrecisionString renders a precision exponent as a human-readable unit
// string such as "1ns", matching spec.md §9's resolution of the
// time_precision ambiguity in favor of a descriptive string.
func PrecisionString(precisionExp10 int16) string {
	for unit, exp := range timeUnitExp10 {
		if exp == int(precisionExp10) {
			return "1" + unit
		}
	}
	return fmt.Sprintf("1e%d s", precisionExp10)
}

func pow10(exp int) float64 {
	result := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			result *= 10
		}
		return result
	}
	for i := 0; i < -exp; i++ {
		result /= 10
	}
	return result
}
