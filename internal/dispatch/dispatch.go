// Package dispatch implements the Command Dispatcher: a table of command
// names to handlers, with sub-command routing for hierarchical commands
// (get.sel, run.cb).
package dispatch

import (
	"github.com/ehrlich-b/go-simctl/internal/clock"
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/logging"
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/waitmgr"
	"github.com/ehrlich-b/go-simctl/internal/wire"
)

// Session bundles the collaborators a handler needs: the registry, clock
// engine, wait manager, and simulator adapter (spec §4 "Data flow").
// Handlers borrow these read-only except for the explicit mutation each
// command is defined to perform (spec §3 "Ownership").
type Session struct {
	Registry *registry.Registry
	Clocks   *clock.Engine
	Waits    *waitmgr.Manager
	Adapter  interfaces.Adapter
	Logger   *logging.Logger
	Observer interfaces.Observer

	// ModelName/Product/Version back the `get sim_info` reply.
	ModelName string
	Product   string
	Version   string

	// FinishRequested/ExitRequested are set by the finish/exit handlers so the
	// FSM can drive the SIM_FINISH/EXIT transition (spec §4.6).
	FinishRequested bool
	ExitRequested   bool
}

// Outcome tells the FSM what happened after a handler ran: whether a reply
// is ready to send immediately, or whether a wait was armed and the FSM
// should move to SIM_RUNNING instead (spec §4.6 PROCESSING transitions).
type Outcome struct {
	Reply       wire.Reply
	WaitArmed   bool
	Finish      bool
	Exit        bool
}

// Handler implements one command (or one sel/cb sub-command).
type Handler func(s *Session, cmd wire.Command) Outcome

// Dispatcher routes a command to its handler by name, then by sub-command
// key for `get`/`run` (spec §2.6, §4.7).
type Dispatcher struct {
	commands map[string]Handler
}

// New builds the dispatcher with the full closed command set wired in
// (spec §6: {info, get, set, run, stop, finish, exit}).
func New() *Dispatcher {
	d := &Dispatcher{commands: make(map[string]Handler)}
	d.commands["info"] = HandleInfo
	d.commands["get"] = HandleGet
	d.commands["set"] = HandleSet
	d.commands["run"] = HandleRun
	d.commands["stop"] = HandleStop
	d.commands["finish"] = HandleFinish
	d.commands["exit"] = HandleExit
	return d
}

// ErrUnknownCommand is the message the spec requires verbatim (§4.7).
const ErrUnknownCommand = "Could not find handler for command. Discarding."

// Dispatch looks up and invokes the handler for cmd.Name. An unregistered
// command yields an error reply without touching any session state
// (spec §8 "Command dispatch").
func (d *Dispatcher) Dispatch(s *Session, cmd wire.Command) Outcome {
	h, ok := d.commands[cmd.Name]
	if !ok {
		return Outcome{Reply: wire.Reply{Type: wire.ReplyError, Value: ErrUnknownCommand}}
	}
	return h(s, cmd)
}

// errorOutcome is a small helper every handler uses so every malformed-
// command path returns exactly one error reply (spec §4.7 "Error reply
// discipline").
func errorOutcome(msg string) Outcome {
	return Outcome{Reply: wire.Reply{Type: wire.ReplyError, Value: msg}}
}

func ackOutcome(msg string) Outcome {
	return Outcome{Reply: wire.Reply{Type: wire.ReplyAck, Value: msg}}
}

func resultOutcome(fields map[string]any) Outcome {
	return Outcome{Reply: wire.Reply{Type: wire.ReplyResult, Fields: fields}}
}
