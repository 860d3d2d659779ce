package dispatch

import (
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/util"
	"github.com/ehrlich-b/go-simctl/internal/wire"
)

// HandleRun routes to the cb-specific sub-handler (spec §4.7 `run`). The
// closed set of cb values is {for_time, until_time, until_change, to_next}.
// Every branch arms exactly one wait and reports WaitArmed so the FSM
// transitions PROCESSING -> SIM_RUNNING (spec §4.6).
func HandleRun(s *Session, cmd wire.Command) Outcome {
	cb, _ := cmd.Raw["cb"].(string)
	switch cb {
	case "for_time":
		return runForTime(s, cmd)
	case "until_time":
		return runUntilTime(s, cmd)
	case "until_change":
		return runUntilChange(s, cmd)
	case "to_next":
		return runToNext(s)
	default:
		return errorOutcome("run requires cb in {for_time, until_time, until_change, to_next}")
	}
}

func runForTime(s *Session, cmd wire.Command) Outcome {
	t, unit, ok := timeFields(cmd)
	if !ok || t <= 0 {
		return errorOutcome("run cb=for_time requires time>0 and a valid time_unit")
	}
	precision := s.Adapter.PrecisionExp10()
	delta, err := util.SecondsToTicks(t, unit, precision)
	if err != nil || delta == 0 {
		return errorOutcome("run cb=for_time: invalid time/time_unit")
	}
	target := s.Adapter.NowTicks() + delta
	tok := s.Adapter.ScheduleAfterDelay(delta)
	if err := s.Waits.RegisterTime(target, tok); err != nil {
		return errorOutcome(err.Error())
	}
	return Outcome{WaitArmed: true}
}

func runUntilTime(s *Session, cmd wire.Command) Outcome {
	t, unit, ok := timeFields(cmd)
	if !ok {
		return errorOutcome("run cb=until_time requires time and time_unit")
	}
	precision := s.Adapter.PrecisionExp10()
	target, err := util.SecondsToTicks(t, unit, precision)
	if err != nil {
		return errorOutcome(err.Error())
	}
	if target <= s.Adapter.NowTicks() {
		return errorOutcome("run cb=until_time requires a target strictly greater than now")
	}
	tok := s.Adapter.ScheduleAtTime(target)
	if err := s.Waits.RegisterTime(target, tok); err != nil {
		return errorOutcome(err.Error())
	}
	return Outcome{WaitArmed: true}
}

func runUntilChange(s *Session, cmd wire.Command) Outcome {
	path, ok := cmd.Raw["path"].(string)
	if !ok || path == "" {
		return errorOutcome("run cb=until_change requires a non-empty \"path\"")
	}
	b, _, _, err := s.Registry.ResolveSelector(path)
	if err != nil {
		return errorOutcome(err.Error())
	}

	tok := s.Adapter.ScheduleValueChange(b.Handle)
	if b.Kind == registry.Event {
		if err := s.Waits.RegisterEventFired(b.Name, tok); err != nil {
			return errorOutcome(err.Error())
		}
		return Outcome{WaitArmed: true}
	}

	target, ok := toFloat(cmd.Raw["value"])
	if !ok {
		s.Adapter.Cancel(tok)
		return errorOutcome("run cb=until_change requires a numeric \"value\" for non-event paths")
	}
	if err := s.Waits.RegisterValueEq(b.Name, target, tok); err != nil {
		s.Adapter.Cancel(tok)
		return errorOutcome(err.Error())
	}
	return Outcome{WaitArmed: true}
}

func runToNext(s *Session) Outcome {
	tok := s.Adapter.ScheduleNextEvent()
	// "to_next" fires on any simulator event, not a specific name; we
	// reuse EventFired with an empty name as a wildcard, which the FSM
	// treats as satisfied after its next clock/time step; the token is not
	// consulted (spec §4.7 `run {cb: to_next}`).
	if err := s.Waits.RegisterEventFired("", tok); err != nil {
		s.Adapter.Cancel(tok)
		return errorOutcome(err.Error())
	}
	return Outcome{WaitArmed: true}
}

func timeFields(cmd wire.Command) (t float64, unit string, ok bool) {
	tv, okT := toFloat(cmd.Raw["time"])
	u, okU := cmd.Raw["time_unit"].(string)
	if !okT || !okU || u == "" {
		return 0, "", false
	}
	return tv, u, true
}
