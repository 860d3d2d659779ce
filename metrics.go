package simctl

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-simctl/internal/interfaces"
)

// Metrics tracks per-session operational statistics: command counts by
// outcome, wait resolution counts (not split by kind), and latency
// totals, mirroring the
// teacher's atomic-counter Metrics shape.
type Metrics struct {
	CommandsOK     atomic.Uint64
	CommandsError  atomic.Uint64
	CommandLatencyNs atomic.Uint64
	CommandCount   atomic.Uint64

	WaitsResolved    atomic.Uint64
	WaitLatencyNs    atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics returns a metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCommand records the outcome and latency of one dispatched command.
func (m *Metrics) RecordCommand(latency time.Duration, success bool) {
	if success {
		m.CommandsOK.Add(1)
	} else {
		m.CommandsError.Add(1)
	}
	m.CommandLatencyNs.Add(uint64(latency.Nanoseconds()))
	m.CommandCount.Add(1)
}

// RecordWaitResolved records how long a wait took to resolve once armed.
func (m *Metrics) RecordWaitResolved(latency time.Duration) {
	m.WaitsResolved.Add(1)
	m.WaitLatencyNs.Add(uint64(latency.Nanoseconds()))
}

// Stop marks the session as ended.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	CommandsOK      uint64
	CommandsError   uint64
	TotalCommands   uint64
	AvgCommandNs    uint64
	WaitsResolved   uint64
	AvgWaitNs       uint64
	UptimeNs        uint64
}

// Snapshot computes derived averages from the raw counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	ok := m.CommandsOK.Load()
	errs := m.CommandsError.Load()
	count := m.CommandCount.Load()
	snap := MetricsSnapshot{
		CommandsOK:    ok,
		CommandsError: errs,
		TotalCommands: count,
		WaitsResolved: m.WaitsResolved.Load(),
	}
	if count > 0 {
		snap.AvgCommandNs = m.CommandLatencyNs.Load() / count
	}
	if snap.WaitsResolved > 0 {
		snap.AvgWaitNs = m.WaitLatencyNs.Load() / snap.WaitsResolved
	}
	stop := m.StopTime.Load()
	start := m.StartTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}
	return snap
}

// MetricsObserver implements interfaces.Observer by recording into Metrics,
// adapted from the teacher's NewMetricsObserver wiring pattern.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an Observer backed by m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommand(name string, latency time.Duration, success bool) {
	o.metrics.RecordCommand(latency, success)
}

func (o *MetricsObserver) ObserveWaitResolved(kind string, latency time.Duration) {
	o.metrics.RecordWaitResolved(latency)
}

// NoOpObserver discards every observation. NewDriver does not use it by
// default: with no Observer supplied it installs a MetricsObserver.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCommand(string, time.Duration, bool)   {}
func (NoOpObserver) ObserveWaitResolved(string, time.Duration)    {}

var (
	_ interfaces.Observer = (*MetricsObserver)(nil)
	_ interfaces.Observer = (*NoOpObserver)(nil)
)
