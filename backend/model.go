// Package backend provides example cycle-driven models implementing
// interfaces.Adapter, for demos and tests.
package backend

import (
	"fmt"
	"sync"

	"github.com/ehrlich-b/go-simctl/internal/interfaces"
)

// cellShards is the number of lock shards a CounterModel's register file
// is split across (mirrors the sharded-locking technique used for
// high-traffic register files). ReadValue and WriteValue take a cell's
// shard lock and then the model-wide mu, so accesses to unrelated cells
// still serialize on mu.
const cellShards = 16

// CounterModel is a minimal cycle-driven testbench: a free-running clock
// toggles a "clk" cell, and on each falling edge the model increments a
// "count" register, wrapping at 2^width and firing an "overflow" event on
// wraparound. It exists to give simctl.Driver something concrete to drive
// in examples and integration tests.
type CounterModel struct {
	mu sync.Mutex

	cells      map[int64]interfaces.Value
	kinds      map[int64]interfaces.HandleKind
	arrayWords map[int64][]int64
	nextID     int64
	shards     [cellShards]sync.Mutex

	clkID     int64
	countID   int64
	overflowID int64
	width     uint64

	now       uint64
	precision int16
	finished  bool
	prevClk   int
	nextTok   interfaces.Token
}

// NewCounterModel builds a CounterModel whose counter register wraps at
// 2^width. precisionExp10 sets the simulator tick size (e.g. -9 for ns).
func NewCounterModel(width uint64, precisionExp10 int16) *CounterModel {
	m := &CounterModel{
		cells:      make(map[int64]interfaces.Value),
		kinds:      make(map[int64]interfaces.HandleKind),
		arrayWords: make(map[int64][]int64),
		width:      width,
		precision:  precisionExp10,
	}
	m.clkID = m.allocLocked(interfaces.HandleScalar, interfaces.Value{Kind: interfaces.ValueInt})
	m.countID = m.allocLocked(interfaces.HandleScalar, interfaces.Value{Kind: interfaces.ValueInt})
	m.overflowID = m.allocLocked(interfaces.HandleNamedEvent, interfaces.Value{Kind: interfaces.ValueEvent})
	return m
}

func (m *CounterModel) allocLocked(kind interfaces.HandleKind, v interfaces.Value) int64 {
	m.nextID++
	id := m.nextID
	m.cells[id] = v
	m.kinds[id] = kind
	return id
}

func (m *CounterModel) shardFor(id int64) *sync.Mutex {
	return &m.shards[id%cellShards]
}

// ClockHandle, CountHandle, and OverflowHandle expose the three registered
// cells for wiring into a Driver via RegisterClock/RegisterScalar/
// RegisterEvent.
func (m *CounterModel) ClockHandle() interfaces.Handle    { return interfaces.NewHandle(m.clkID) }
func (m *CounterModel) CountHandle() interfaces.Handle    { return interfaces.NewHandle(m.countID) }
func (m *CounterModel) OverflowHandle() interfaces.Handle { return interfaces.NewHandle(m.overflowID) }

func (m *CounterModel) ResolvePath(path string) (interfaces.Handle, bool) {
	return interfaces.Handle{}, false
}

func (m *CounterModel) ReadValue(h interfaces.Handle) (interfaces.Value, error) {
	shard := m.shardFor(h.ID())
	shard.Lock()
	defer shard.Unlock()
	m.mu.Lock()
	v, ok := m.cells[h.ID()]
	m.mu.Unlock()
	if !ok {
		return interfaces.Value{}, fmt.Errorf("counter model: no cell for handle %d", h.ID())
	}
	return v, nil
}

func (m *CounterModel) WriteValue(h interfaces.Handle, v interfaces.Value) error {
	shard := m.shardFor(h.ID())
	shard.Lock()
	defer shard.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cells[h.ID()]; !ok {
		return fmt.Errorf("counter model: no cell for handle %d", h.ID())
	}
	m.cells[h.ID()] = v
	if h.ID() == m.clkID {
		m.onClockWrite(v)
	}
	return nil
}

// onClockWrite runs the model's one piece of behavior: on a 1->0 clock
// edge, increment count and wrap at 2^width, firing overflow on wrap.
// Called with mu held.
func (m *CounterModel) onClockWrite(v interfaces.Value) {
	level := int(v.Number())
	if m.prevClk == 1 && level == 0 {
		count := m.cells[m.countID]
		next := uint64(count.Int) + 1
		wrapped := m.width < 64 && next >= (uint64(1)<<m.width)
		if wrapped {
			next = 0
		}
		m.cells[m.countID] = interfaces.Value{Kind: interfaces.ValueInt, Int: int32(next)}
		m.cells[m.overflowID] = interfaces.Value{Kind: interfaces.ValueEvent, Evt: wrapped}
	} else {
		// clear the fire-only event once it has had a chance to be sampled
		m.cells[m.overflowID] = interfaces.Value{Kind: interfaces.ValueEvent, Evt: false}
	}
	m.prevClk = level
}

func (m *CounterModel) HandleType(h interfaces.Handle) interfaces.HandleKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kind, ok := m.kinds[h.ID()]
	if !ok {
		return interfaces.HandleUnknown
	}
	return kind
}

func (m *CounterModel) MemoryDepth(h interfaces.Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.arrayWords[h.ID()])
}

func (m *CounterModel) MemoryWord(h interfaces.Handle, i int) (interfaces.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	words, ok := m.arrayWords[h.ID()]
	if !ok || i < 0 || i >= len(words) {
		return interfaces.Handle{}, fmt.Errorf("counter model: word %d out of range", i)
	}
	return interfaces.NewHandle(words[i]), nil
}

func (m *CounterModel) NowTicks() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *CounterModel) AdvanceTo(t uint64) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *CounterModel) PrecisionExp10() int16 { return m.precision }

func (m *CounterModel) ScheduleAfterDelay(dt uint64) interfaces.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTok++
	return m.nextTok
}

func (m *CounterModel) ScheduleAtTime(t uint64) interfaces.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTok++
	return m.nextTok
}

func (m *CounterModel) ScheduleValueChange(h interfaces.Handle) interfaces.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTok++
	return m.nextTok
}

func (m *CounterModel) ScheduleNextEvent() interfaces.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTok++
	return m.nextTok
}

func (m *CounterModel) Cancel(tok interfaces.Token) {}

func (m *CounterModel) GotFinish() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

func (m *CounterModel) RequestFinish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
}

var _ interfaces.Adapter = (*CounterModel)(nil)
