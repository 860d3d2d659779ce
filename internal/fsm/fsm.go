// Package fsm implements the Control FSM: the top-level state machine
// that sequences connection accept, frame read, command dispatch, and
// simulation advance (spec §3 "FSM state", §4.6).
package fsm

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/ehrlich-b/go-simctl/internal/clock"
	"github.com/ehrlich-b/go-simctl/internal/conn"
	"github.com/ehrlich-b/go-simctl/internal/dispatch"
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/logging"
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/waitmgr"
	"github.com/ehrlich-b/go-simctl/internal/wire"
)

// State is one of the closed set of FSM states (spec §3).
type State int

const (
	StateInit State = iota
	StateConnect
	StateWaiting
	StateProcessing
	StateSimRunning
	StateSimFinish
	StateExit
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConnect:
		return "CONNECT"
	case StateWaiting:
		return "WAITING"
	case StateProcessing:
		return "PROCESSING"
	case StateSimRunning:
		return "SIM_RUNNING"
	case StateSimFinish:
		return "SIM_FINISH"
	case StateExit:
		return "EXIT"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FSM owns the server and client socket descriptors and the wait state
// (spec §3 "Ownership"); each parsed command lives only for the step that
// dispatches it. It exclusively drives
// every other component through a single-threaded cooperative loop
// (spec §5).
type FSM struct {
	listener *conn.Listener
	client   net.Conn
	state    State
	readBuf  []byte

	dispatcher *dispatch.Dispatcher
	session    *dispatch.Session
	logger     *logging.Logger

	// pendingUUID carries the uuid of the run command that armed the
	// current wait, so the eventual ack/error echoes it correctly even
	// though it fires many frames later (spec §3 uuid echo).
	pendingUUID string

	// waitArmedAt records when the current wait was registered, so its
	// resolution latency can be reported to the Observer.
	waitArmedAt time.Time
	waitKind    string

	observer interfaces.Observer
}

// New builds an FSM ready to Run once Bind succeeds. The listener config is
// supplied separately to Run, since a single FSM may be reused across
// successive sessions with different bind parameters in tests. observer
// may be nil, in which case command/wait metrics are simply not reported.
func New(reg *registry.Registry, clocks *clock.Engine, adapter interfaces.Adapter, observer interfaces.Observer, logger *logging.Logger, modelName, product, version string) *FSM {
	if logger == nil {
		logger = logging.Default()
	}
	return &FSM{
		state:      StateInit,
		readBuf:    make([]byte, 64*1024),
		dispatcher: dispatch.New(),
		session: &dispatch.Session{
			Registry:  reg,
			Clocks:    clocks,
			Waits:     waitmgr.New(),
			Adapter:   adapter,
			Logger:    logger,
			Observer:  observer,
			ModelName: modelName,
			Product:   product,
			Version:   version,
		},
		logger:   logger,
		observer: observer,
	}
}

// Run drives the FSM from INIT to EXIT or ERROR, returning a nonzero
// status only for ERROR (spec §3 "Terminal = EXIT (clean) or ERROR (exit
// code != 0)").
func (f *FSM) Run(cfg *conn.Config) int {
	f.state = StateInit
	ln, err := conn.Bind(cfg)
	if err != nil {
		f.logger.Error("bind failed", "error", err)
		return 1
	}
	f.listener = ln
	f.state = StateConnect

	client, err := f.listener.AcceptWithTimeout()
	if err != nil {
		f.logger.Error("accept failed", "error", err)
		f.listener.Close()
		return 1
	}
	f.client = client
	f.state = StateWaiting

	for {
		switch f.state {
		case StateWaiting:
			f.stepWaiting()
		case StateProcessing:
			// PROCESSING is never durable; force WAITING as a defensive
			// fly-catch if re-entered on the loop head (spec §4.6).
			f.state = StateWaiting
		case StateSimRunning:
			f.stepSimRunning()
		case StateSimFinish:
			f.stepSimFinish()
		case StateExit:
			f.teardown()
			return 0
		case StateError:
			f.teardownWithFinalError()
			return 1
		}
	}
}

func (f *FSM) stepWaiting() {
	h, payload, total, err := wire.DecodeFrame(f.client, f.readBuf)
	if err != nil {
		var frameErr *wire.ShortHeader
		if errors.As(err, &frameErr) {
			f.sendError("malformed frame: " + err.Error())
			f.state = StateWaiting
			return
		}
		if err == io.EOF {
			f.state = StateConnect
			f.reaccept()
			return
		}
		var ioErr *wire.IOError
		if errors.As(err, &ioErr) {
			f.state = StateConnect
			f.reaccept()
			return
		}
		f.sendError("malformed frame: " + err.Error())
		f.state = StateWaiting
		return
	}
	if total > len(f.readBuf) {
		f.sendError("frame exceeds buffer capacity")
		f.state = StateWaiting
		return
	}

	cmd, err := wire.DecodeCommand(payload)
	if err != nil {
		f.sendErrorWithUUID("malformed command: "+err.Error(), h.UUID)
		f.state = StateWaiting
		return
	}

	f.state = StateProcessing
	start := time.Now()
	out := f.dispatcher.Dispatch(f.session, cmd)
	if f.observer != nil {
		f.observer.ObserveCommand(cmd.Name, time.Since(start), out.Reply.Type != wire.ReplyError)
	}
	f.handleOutcome(out, h.UUID)
}

func (f *FSM) handleOutcome(out dispatch.Outcome, uuid string) {
	switch {
	case out.Exit, out.Finish:
		f.writeReply(out.Reply, uuid)
		f.state = StateSimFinish
	case out.WaitArmed:
		f.pendingUUID = uuid
		f.waitArmedAt = time.Now()
		f.waitKind = f.session.Waits.Current().Kind.String()
		f.state = StateSimRunning
	default:
		f.writeReply(out.Reply, uuid)
		f.state = StateWaiting
	}
}

func (f *FSM) stepSimRunning() {
	// Embedding B main loop: advance to the next clock/time event,
	// evaluate, check the pending wait, repeat until satisfied or the
	// simulator signals finish (spec §4.6 SIM_RUNNING row, §2 item 2).
	for {
		if f.session.Adapter.GotFinish() {
			f.sendErrorWithUUID("Exiting ... end of simulation", f.pendingUUID)
			f.session.Waits.Clear()
			f.state = StateExit
			return
		}

		nextClock, clockHasEvent := f.session.Clocks.NextEventTime()
		wait := f.session.Waits.Current()

		var nextTime uint64
		hasNext := false
		if clockHasEvent {
			nextTime = nextClock
			hasNext = true
		}
		if wait.Kind == waitmgr.Time {
			if !hasNext || wait.TargetTicks < nextTime {
				nextTime = wait.TargetTicks
				hasNext = true
			}
		}

		if !hasNext {
			f.state = StateSimFinish
			return
		}

		f.session.Clocks.Eval(nextTime)
		f.mirrorClockValues()
		f.session.Adapter.AdvanceTo(nextTime)

		switch wait.Kind {
		case waitmgr.Time:
			if nextTime >= wait.TargetTicks {
				f.resolveWait()
				f.sendAck("Reached callback target", f.pendingUUID)
				f.state = StateWaiting
				return
			}
		case waitmgr.ValueEq:
			if f.checkValueEq(wait.Name, wait.TargetNumber) {
				f.resolveWait()
				f.sendAck("Reached callback value change", f.pendingUUID)
				f.state = StateWaiting
				return
			}
		case waitmgr.EventFired:
			if wait.Name == "" || f.checkEventFired(wait.Name) {
				f.resolveWait()
				f.sendAck("Reached callback event", f.pendingUUID)
				f.state = StateWaiting
				return
			}
		}
	}
}

// resolveWait clears the pending wait and reports its resolution latency to
// the Observer, if one is configured.
func (f *FSM) resolveWait() {
	if f.observer != nil {
		f.observer.ObserveWaitResolved(f.waitKind, time.Since(f.waitArmedAt))
	}
	f.session.Waits.Clear()
}

// checkValueEq re-reads the named binding's current value and compares it
// to target, per the Embedding B main loop's "checks completion predicates
// for pending waits" (spec §1).
func (f *FSM) checkValueEq(name string, target float64) bool {
	b, ok := f.session.Registry.Get(name)
	if !ok {
		return false
	}
	v, err := f.session.Adapter.ReadValue(b.Handle)
	if err != nil {
		return false
	}
	return v.Number() == target
}

// checkEventFired reports whether the named event has fired since the last
// sample (spec §4.4: "value is 1 iff event has fired since last sample").
func (f *FSM) checkEventFired(name string) bool {
	b, ok := f.session.Registry.Get(name)
	if !ok {
		return false
	}
	v, err := f.session.Adapter.ReadValue(b.Handle)
	if err != nil {
		return false
	}
	return v.Number() != 0
}

// mirrorClockValues writes each clock's toggled 0/1 value into the adapter
// cell named by its DataRef, so get{sel:value} and model logic observing
// that cell see the oscillator's current level (spec §4.5's clock binding
// is otherwise invisible to the rest of the control surface).
func (f *FSM) mirrorClockValues() {
	for _, c := range f.session.Clocks.All() {
		if !c.Enabled {
			continue
		}
		h := interfaces.NewHandle(c.DataRef)
		_ = f.session.Adapter.WriteValue(h, interfaces.Value{Kind: interfaces.ValueInt, Int: int32(c.Value)})
	}
}

// stepSimFinish drains any clock events still scheduled before finalizing,
// per spec §4.7's `exit` ("drain remaining events until got_finish or queue
// empty") and §4.6's PROCESSING row (both `exit` and `finish` land here).
func (f *FSM) stepSimFinish() {
	f.drainEvents()
	f.state = StateExit
}

// drainEvents advances the clock engine through its remaining scheduled
// events until the adapter reports finish or no event remains pending.
func (f *FSM) drainEvents() {
	for !f.session.Adapter.GotFinish() {
		nextTime, hasNext := f.session.Clocks.NextEventTime()
		if !hasNext {
			return
		}
		f.session.Clocks.Eval(nextTime)
		f.mirrorClockValues()
		f.session.Adapter.AdvanceTo(nextTime)
	}
}

func (f *FSM) reaccept() {
	if f.client != nil {
		f.client.Close()
	}
	client, err := f.listener.AcceptWithTimeout()
	if err != nil {
		f.state = StateError
		return
	}
	f.client = client
	f.state = StateWaiting
}

func (f *FSM) sendError(msg string) {
	f.sendErrorWithUUID(msg, "")
}

func (f *FSM) sendErrorWithUUID(msg, uuid string) {
	_ = wire.WriteReply(f.client, wire.Reply{Type: wire.ReplyError, Value: msg}, uuid)
}

func (f *FSM) sendAck(msg, uuid string) {
	_ = wire.WriteReply(f.client, wire.Reply{Type: wire.ReplyAck, Value: msg}, uuid)
}

func (f *FSM) writeReply(r wire.Reply, uuid string) {
	_ = wire.WriteReply(f.client, r, uuid)
}

// teardown closes the client socket before the server socket (spec §4.2
// "clean shutdown closes the client socket before the server socket").
func (f *FSM) teardown() {
	if f.client != nil {
		f.client.Close()
	}
	if f.listener != nil {
		f.listener.Close()
	}
}

// teardownWithFinalError sends a final error reply if a wait was pending
// when the session ended in ERROR (spec §4.7 "Exiting ... end of
// simulation" discipline), then tears down in the same order.
func (f *FSM) teardownWithFinalError() {
	if f.session.Waits.Pending() && f.client != nil {
		f.sendErrorWithUUID("Exiting ... end of simulation", f.pendingUUID)
	}
	f.teardown()
}
