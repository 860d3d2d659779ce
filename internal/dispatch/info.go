package dispatch

import "github.com/ehrlich-b/go-simctl/internal/wire"

// HandleInfo emits the caller-supplied string to the log (spec §4.7
// `info`). Error if `value` is missing or empty.
func HandleInfo(s *Session, cmd wire.Command) Outcome {
	value, ok := cmd.Raw["value"].(string)
	if !ok || value == "" {
		return errorOutcome("info requires a non-empty string field \"value\"")
	}
	s.Logger.Info(value)
	return ackOutcome("command info received")
}
