package fsm

import (
	"net"
	"testing"
	"time"

	"github.com/ehrlich-b/go-simctl/internal/clock"
	"github.com/ehrlich-b/go-simctl/internal/conn"
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/wire"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	now       uint64
	precision int16
	finished  bool
}

func (a *stubAdapter) ResolvePath(path string) (interfaces.Handle, bool) { return interfaces.Handle{}, false }
func (a *stubAdapter) ReadValue(h interfaces.Handle) (interfaces.Value, error) {
	return interfaces.Value{}, nil
}
func (a *stubAdapter) WriteValue(h interfaces.Handle, v interfaces.Value) error { return nil }
func (a *stubAdapter) HandleType(h interfaces.Handle) interfaces.HandleKind     { return interfaces.HandleScalar }
func (a *stubAdapter) MemoryDepth(h interfaces.Handle) int                     { return 0 }
func (a *stubAdapter) MemoryWord(h interfaces.Handle, i int) (interfaces.Handle, error) {
	return h, nil
}
func (a *stubAdapter) NowTicks() uint64      { return a.now }
func (a *stubAdapter) AdvanceTo(t uint64)    { a.now = t }
func (a *stubAdapter) PrecisionExp10() int16 { return a.precision }
func (a *stubAdapter) ScheduleAfterDelay(dt uint64) interfaces.Token { a.now += 0; return 1 }
func (a *stubAdapter) ScheduleAtTime(t uint64) interfaces.Token      { return 1 }
func (a *stubAdapter) ScheduleValueChange(h interfaces.Handle) interfaces.Token { return 1 }
func (a *stubAdapter) ScheduleNextEvent() interfaces.Token                     { return 1 }
func (a *stubAdapter) Cancel(tok interfaces.Token)                            {}
func (a *stubAdapter) GotFinish() bool                                        { return a.finished }
func (a *stubAdapter) RequestFinish()                                         { a.finished = true }

func startFSM(t *testing.T) (net.Addr, chan int) {
	t.Helper()
	reg := registry.New()
	clocks := clock.New()
	adapter := &stubAdapter{precision: -9}
	f := New(reg, clocks, adapter, nil, nil, "model", "go-simctl", "test")

	cfg := conn.DefaultConfig()
	cfg.Port = 0
	cfg.TimeoutSec = 5

	// Run binds internally and doesn't report its address, so bind once
	// here on an ephemeral port to learn a free port number, close that
	// listener, and have Run rebind on the same port.
	done := make(chan int, 1)
	addrCh := make(chan net.Addr, 1)
	go func() {
		ln, err := conn.Bind(cfg)
		if err != nil {
			t.Errorf("bind: %v", err)
			done <- 1
			return
		}
		addrCh <- ln.Addr()
		ln.Close()
		cfg2 := conn.DefaultConfig()
		cfg2.Port = ln.Addr().(*net.TCPAddr).Port
		cfg2.TimeoutSec = 5
		done <- f.Run(cfg2)
	}()

	addr := <-addrCh
	return addr, done
}

func TestFSMInfoThenExit(t *testing.T) {
	addr, done := startFSM(t)
	time.Sleep(20 * time.Millisecond)

	c, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, wire.WriteCommand(c, map[string]any{"command": "info", "value": "hi"}, ""))

	buf := make([]byte, 4096)
	_, payload, _, err := wire.DecodeFrame(c, buf)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"type":"ack"`)
	require.Contains(t, string(payload), "command info received")

	require.NoError(t, wire.WriteCommand(c, map[string]any{"command": "exit"}, ""))
	_, payload, _, err = wire.DecodeFrame(c, buf)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"type":"ack"`)

	select {
	case code := <-done:
		require.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("FSM.Run did not return after exit")
	}
}

func TestFSMUnknownCommand(t *testing.T) {
	addr, done := startFSM(t)
	time.Sleep(20 * time.Millisecond)

	c, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, wire.WriteCommand(c, map[string]any{"command": "bogus"}, ""))
	buf := make([]byte, 4096)
	_, payload, _, err := wire.DecodeFrame(c, buf)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"type":"error"`)

	require.NoError(t, wire.WriteCommand(c, map[string]any{"command": "exit"}, ""))
	_, _, _, err = wire.DecodeFrame(c, buf)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("FSM.Run did not return after exit")
	}
}
