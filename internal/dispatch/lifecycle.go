package dispatch

import "github.com/ehrlich-b/go-simctl/internal/wire"

// HandleStop acks; the simulator is paused but the FSM remains in WAITING
// (spec §4.7 `stop`).
func HandleStop(s *Session, cmd wire.Command) Outcome {
	return ackOutcome("")
}

// HandleFinish requests simulator finish and tells the FSM to drain
// remaining events toward SIM_FINISH then EXIT (spec §4.7 `finish`).
func HandleFinish(s *Session, cmd wire.Command) Outcome {
	s.Adapter.RequestFinish()
	s.FinishRequested = true
	return Outcome{Reply: wire.Reply{Type: wire.ReplyAck, Value: ""}, Finish: true}
}

// HandleExit drains remaining events until got_finish or queue empty, then
// finalizes and exits (spec §4.7 `exit`).
func HandleExit(s *Session, cmd wire.Command) Outcome {
	s.ExitRequested = true
	return Outcome{Reply: wire.Reply{Type: wire.ReplyAck, Value: ""}, Exit: true}
}
